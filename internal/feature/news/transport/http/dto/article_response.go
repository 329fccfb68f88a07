package dto

// ArticleResponse はニュース記事のレスポンスDTOです。
type ArticleResponse struct {
	Headline    string   `json:"headline"`
	URL         string   `json:"url"`
	Source      string   `json:"source"`
	PublishedAt string   `json:"published_at"` // RFC3339
	Symbols     []string `json:"symbols"`
}
