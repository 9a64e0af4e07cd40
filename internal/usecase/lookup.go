package usecase

import (
	"context"
	"fmt"

	"github.com/example/topup-wallet-engine/internal/domain"
)

// LookupAccount — получить отображаемое имя аккаунта. Занимает тот же слот
// транзакции, что и заказы: расходует ту же сессию и токен.
type LookupAccount struct {
	Verifier domain.AccountVerifier
	Lock     *TxLock
}

func (uc *LookupAccount) Execute(ctx context.Context, game domain.Game, region domain.Region, accountID, zoneID string) (string, error) {
	if accountID == "" || zoneID == "" {
		return "", fmt.Errorf("%w: account and zone ids are required", domain.ErrValidation)
	}
	if err := uc.Lock.Acquire(ctx); err != nil {
		return "", err
	}
	defer uc.Lock.Release()
	return uc.Verifier.LookupAccount(ctx, game, region, accountID, zoneID)
}
