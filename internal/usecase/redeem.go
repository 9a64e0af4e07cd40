package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/example/topup-wallet-engine/internal/domain"
)

var codePattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// RedeemCode — активация предоплаченного кода и зачисление на общий кошелёк.
// Код пробуется в BR, затем в PH.
type RedeemCode struct {
	Redeemer domain.CodeRedeemer
	Ledger   *Ledger
	Session  domain.SessionProvider
	Lock     *TxLock
	Logger   *slog.Logger
}

func (uc *RedeemCode) Execute(ctx context.Context, requester, code string) domain.RedeemReport {
	rep := domain.RedeemReport{Requester: requester, Code: code}
	if !codePattern.MatchString(code) {
		return redeemFailed(rep, domain.Fail(domain.CodeInvalidCode, "code must be alphanumeric"))
	}
	if err := uc.Lock.Acquire(ctx); err != nil {
		return redeemFailed(rep, fmt.Errorf("wait for transaction slot: %w", err))
	}
	defer uc.Lock.Release()

	log := uc.logger().With("requester", requester)
	var (
		out domain.RedeemOutcome
		err error
	)
	for _, region := range []domain.Region{domain.RegionBR, domain.RegionPH} {
		out, err = uc.Redeemer.Redeem(ctx, region, code)
		if c := domain.CodeOf(err); c != domain.CodeInvalidCode && c != domain.CodePaymentFailed {
			break
		}
	}
	if err != nil {
		if domain.CodeOf(err).CredentialProblem() && uc.Session != nil {
			if rerr := uc.Session.Refresh(ctx); rerr != nil {
				log.Error("session refresh failed", "err", rerr)
			} else {
				err = domain.Fail(domain.CodeSessionRenewed, "session renewed; submit the code again")
			}
		}
		log.Warn("redeem failed", "code", domain.CodeOf(err), "err", err)
		return redeemFailed(rep, err)
	}

	rep.Region = out.Region
	if !out.Added.IsPositive() {
		rep.Unknown = true
		bal, err := uc.Ledger.Balance(ctx)
		if err == nil {
			rep.Balance = bal.Get(out.Region)
		}
		log.Warn("code redeemed but the credited amount is not visible yet", "region", out.Region)
		return rep
	}
	bal, err := uc.Ledger.Credit(context.WithoutCancel(ctx), out.Region, out.Added)
	if err != nil {
		log.Error("credit after redeem failed", "region", out.Region, "amount", out.Added.StringFixed(2), "err", err)
		return redeemFailed(rep, err)
	}
	rep.Credited = out.Added
	rep.Balance = bal.Get(out.Region)
	log.Info("code redeemed", "region", out.Region, "credited", out.Added.StringFixed(2))
	return rep
}

func redeemFailed(rep domain.RedeemReport, err error) domain.RedeemReport {
	rep.Failure = domain.CodeOf(err)
	rep.Message = domain.MessageOf(err)
	return rep
}

func (uc *RedeemCode) logger() *slog.Logger {
	if uc.Logger != nil {
		return uc.Logger
	}
	return slog.Default()
}
