// Package jwtmw は管理エンドポイント用のJWT発行と検証を提供します。
package jwtmw

import (
	"os"
	"time"
)

const (
	// EnvKeyJWTSecret は署名鍵を読み込む環境変数名です。値はログに出力しないこと。
	EnvKeyJWTSecret = "JWT_SECRET"

	// AdminSubject は管理トークンの sub クレームです。
	AdminSubject = "admin"

	DefaultExpiration = 12 * time.Hour
)

// LoadSecret は環境変数から署名鍵を読み込みます。未設定の場合は空文字です。
func LoadSecret() string {
	return os.Getenv(EnvKeyJWTSecret)
}
