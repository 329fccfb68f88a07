package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stockpulse/internal/feature/prices/domain"
	"stockpulse/internal/feature/prices/domain/entity"
)

const maxSymbolLen = 10

// CanonicalSymbol は銘柄コードを前後の空白を除去し大文字化した正規形に変換します。
func CanonicalSymbol(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" || len(s) > maxSymbolLen {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidSymbol, symbol)
	}
	return s, nil
}

// Registry は銘柄コードと永続化されたティッカーの対応を管理します。
type Registry struct {
	repo TickerRepository
}

// NewRegistry は新しい Registry を作成します。
func NewRegistry(repo TickerRepository) *Registry {
	return &Registry{repo: repo}
}

// GetOrCreate は銘柄に対応するティッカーを返し、未登録であれば作成します。
// 同時に作成された場合も同じ銘柄に対して二つのティッカーが存在することはありません。
func (r *Registry) GetOrCreate(ctx context.Context, symbol string) (entity.Ticker, error) {
	canonical, err := CanonicalSymbol(symbol)
	if err != nil {
		return entity.Ticker{}, err
	}

	t, err := r.repo.FindBySymbol(ctx, canonical)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, domain.ErrTickerNotFound) {
		return entity.Ticker{}, err
	}

	t = entity.Ticker{Symbol: canonical}
	if err := r.repo.Create(ctx, &t); err != nil {
		if errors.Is(err, domain.ErrTickerExists) {
			// lost the race against another writer; its row wins
			return r.repo.FindBySymbol(ctx, canonical)
		}
		return entity.Ticker{}, err
	}
	return t, nil
}

// FindBySymbol looks up an existing ticker without creating it.
func (r *Registry) FindBySymbol(ctx context.Context, symbol string) (entity.Ticker, error) {
	canonical, err := CanonicalSymbol(symbol)
	if err != nil {
		return entity.Ticker{}, err
	}
	return r.repo.FindBySymbol(ctx, canonical)
}

// List returns all registered tickers ordered by symbol.
func (r *Registry) List(ctx context.Context) ([]entity.Ticker, error) {
	return r.repo.List(ctx)
}

// BackfillName は表示名が未設定のティッカーにのみプロバイダの表示名を設定します。
func (r *Registry) BackfillName(ctx context.Context, t entity.Ticker, name string) (entity.Ticker, error) {
	name = strings.TrimSpace(name)
	if t.Name != "" || name == "" {
		return t, nil
	}
	if err := r.repo.SetNameIfEmpty(ctx, t.ID, name); err != nil {
		return t, err
	}
	t.Name = name
	return t, nil
}
