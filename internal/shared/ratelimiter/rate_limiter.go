// Package ratelimiter throttles calls to external price providers.
package ratelimiter

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter は、API呼び出しなどの操作の頻度を制限します。
// 一定間隔あたりの上限回数を、バーストを許すトークンバケットで表現します。
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter は interval あたり limit 回までの呼び出しを許可するRateLimiterを生成します。
// limit が0以下の場合は制限しません。
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	if limit <= 0 || interval <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	every := rate.Every(interval / time.Duration(limit))
	return &RateLimiter{limiter: rate.NewLimiter(every, limit)}
}

// PerMinute は1分あたり n 回までの呼び出しを許可するRateLimiterを生成します。
func PerMinute(n int) *RateLimiter {
	return NewRateLimiter(n, time.Minute)
}

// Wait は次の呼び出しが許可されるまで待機します。ctx がキャンセルされた場合はそのエラーを返します。
func (rl *RateLimiter) Wait(ctx context.Context) error {
	return rl.limiter.Wait(ctx)
}
