// Package http builds outbound HTTP clients for provider, notifier and scraper calls.
package http

import (
	"net"
	"net/http"
	"time"
)

// ClientOption customizes a client built by NewHTTPClient.
type ClientOption func(*http.Client)

// WithUserAgent sets a default User-Agent on every request that does not carry one.
// Some sites answer 401/403 to Go's default agent.
func WithUserAgent(ua string) ClientOption {
	return func(c *http.Client) {
		c.Transport = &userAgentTransport{base: c.Transport, ua: ua}
	}
}

// NewHTTPClient は外部API呼び出し用に設定されたHTTPクライアントを作成します。
//
// 設定:
//   - Proxy: 環境変数（HTTP_PROXYなど）が設定されている場合に使用
//   - Dialer.Timeout: TCP接続タイムアウト（デフォルトより短い）
//   - MaxIdleConns: 最大アイドル接続数
//   - Client.Timeout: リクエスト全体のタイムアウト（呼び出し元から渡される）
//
// http.DefaultClientにはタイムアウトがないため、常にこのクライアントを使用すること。
func NewHTTPClient(timeout time.Duration, opts ...ClientOption) *http.Client {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        20,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	c := &http.Client{Timeout: timeout, Transport: t}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type userAgentTransport struct {
	base http.RoundTripper
	ua   string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.ua)
	return t.base.RoundTrip(r)
}
