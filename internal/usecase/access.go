package usecase

import (
	"context"
	"fmt"

	"github.com/example/topup-wallet-engine/internal/domain"
)

// CredentialSetter — порт замены сохранённого cookie витрины.
type CredentialSetter interface {
	Set(ctx context.Context, raw string) (domain.Credential, error)
}

// Access — allow-list общего кошелька и ручная замена credential.
// Владелец всегда в списке и не может быть удалён.
type Access struct {
	Store       domain.StateStore
	Owner       string
	Credentials CredentialSetter
}

func (a *Access) IsOwner(ids ...string) bool {
	owner := domain.NormalizeIdentity(a.Owner)
	for _, id := range ids {
		if id = domain.NormalizeIdentity(id); id != "" && id == owner {
			return true
		}
	}
	return false
}

// IsAuthorized — разрешён ли хотя бы один идентификатор вызывающего (числовой id или handle).
func (a *Access) IsAuthorized(ctx context.Context, ids ...string) (bool, error) {
	if a.IsOwner(ids...) {
		return true, nil
	}
	var ok bool
	err := a.Store.View(ctx, func(st domain.State) error {
		for _, id := range ids {
			if st.Users.Contains(id) {
				ok = true
				return nil
			}
		}
		return nil
	})
	return ok, err
}

func (a *Access) AddUser(ctx context.Context, id string) (bool, error) {
	if domain.NormalizeIdentity(id) == "" {
		return false, fmt.Errorf("%w: empty identity", domain.ErrValidation)
	}
	var added bool
	err := a.Store.Update(ctx, func(st *domain.State) error {
		added = st.Users.Add(id)
		return nil
	})
	return added, err
}

func (a *Access) RemoveUser(ctx context.Context, id string) (bool, error) {
	if a.IsOwner(id) {
		return false, domain.ErrOwnerImmutable
	}
	var removed bool
	err := a.Store.Update(ctx, func(st *domain.State) error {
		removed = st.Users.Remove(id)
		return nil
	})
	return removed, err
}

func (a *Access) ListUsers(ctx context.Context) ([]string, error) {
	var out []string
	err := a.Store.View(ctx, func(st domain.State) error {
		out = append(out, st.Users...)
		return nil
	})
	return out, err
}

// SetCredential — сохранить cookie от оператора. Одинаковый ввод даёт одинаковое сохранённое значение.
func (a *Access) SetCredential(ctx context.Context, raw string) (domain.Credential, error) {
	return a.Credentials.Set(ctx, raw)
}
