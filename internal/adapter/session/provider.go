// Package session — единственный cookie витрины: чтение из хранилища
// состояния, замена и обновление через внешний вход.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/example/topup-wallet-engine/internal/domain"
)

var ErrNoReauthenticator = errors.New("automatic login is not configured")

// Provider — SessionProvider поверх StateStore.
type Provider struct {
	Store  domain.StateStore
	Reauth domain.Reauthenticator
	Logger *slog.Logger
}

func NewProvider(store domain.StateStore, reauth domain.Reauthenticator, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{Store: store, Reauth: reauth, Logger: logger}
}

// Session — сохранённый cookie; перечитывается при каждом вызове.
func (p *Provider) Session(ctx context.Context) (domain.Credential, error) {
	var cred domain.Credential
	err := p.Store.View(ctx, func(st domain.State) error {
		cred = domain.Credential{Raw: st.Cookie}
		return nil
	})
	return cred, err
}

// Set — заменить cookie нормализованным raw; повторная установка того же значения ничего не меняет.
func (p *Provider) Set(ctx context.Context, raw string) (domain.Credential, error) {
	cookie, err := NormalizeCookie(raw)
	if err != nil {
		return domain.Credential{}, err
	}
	err = p.Store.Update(ctx, func(st *domain.State) error {
		st.Cookie = cookie
		return nil
	})
	return domain.Credential{Raw: cookie}, err
}

// Refresh — один интерактивный вход; при успехе cookie сохраняется.
func (p *Provider) Refresh(ctx context.Context) error {
	if p.Reauth == nil {
		return ErrNoReauthenticator
	}
	p.Logger.Info("session refresh started")
	cred, err := p.Reauth.Reauthenticate(ctx)
	if err != nil {
		p.Logger.Error("session refresh failed", "err", err)
		return fmt.Errorf("reauthenticate: %w", err)
	}
	if cred.Empty() {
		p.Logger.Error("session refresh returned an empty credential")
		return fmt.Errorf("reauthenticate: empty credential")
	}
	if err := p.Store.Update(ctx, func(st *domain.State) error {
		st.Cookie = cred.Header()
		return nil
	}); err != nil {
		return fmt.Errorf("persist credential: %w", err)
	}
	p.Logger.Info("session refreshed", "tokens", len(cred.Tokens()))
	return nil
}

var _ domain.SessionProvider = (*Provider)(nil)
