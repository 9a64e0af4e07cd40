package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/example/topup-wallet-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// PackageResolver — каталог пакетов (только чтение).
type PackageResolver interface {
	Resolve(game domain.Game, key string) (domain.Package, bool)
}

// FulfillRequest — заказ одного пакета на игровой аккаунт.
type FulfillRequest struct {
	Requester  string
	Game       domain.Game
	AccountID  string
	ZoneID     string
	PackageKey string
}

// Fulfill — оркестратор заказа: RESOLVED -> LOCKED -> BALANCE_CHECKED ->
// PURCHASING* -> SETTLED | REJECTED.
type Fulfill struct {
	Catalog   PackageResolver
	Ledger    *Ledger
	Purchaser domain.Purchaser
	Session   domain.SessionProvider
	Lock      *TxLock
	Events    domain.EventPublisher
	Logger    *slog.Logger
	Location  *time.Location

	// ItemDelayMin/Max — границы случайной паузы между позициями.
	ItemDelayMin time.Duration
	ItemDelayMax time.Duration

	Now   func() time.Time
	Pause func(time.Duration)
}

// Execute — выполнить один заказ. Ожидаемые отказы возвращаются в отчёте;
// неожиданные, включая панику, превращаются в отчёт SYSTEM_ERROR.
func (uc *Fulfill) Execute(ctx context.Context, req FulfillRequest) (rep domain.FulfillmentReport) {
	if req.Game == "" {
		req.Game = domain.GameMLBB
	}
	rep = domain.FulfillmentReport{
		Requester:  req.Requester,
		AccountID:  req.AccountID,
		ZoneID:     req.ZoneID,
		PackageKey: req.PackageKey,
		Game:       req.Game,
		Status:     domain.ReportRejected,
	}
	defer func() {
		if p := recover(); p != nil {
			uc.logger().Error("fulfillment panicked", "requester", req.Requester, "package", req.PackageKey, "panic", p)
			rep.Code, rep.Message = domain.CodeSystemError, fmt.Sprint(p)
		}
	}()

	pkg, ok := uc.Catalog.Resolve(req.Game, req.PackageKey)
	if !ok {
		return reject(rep, domain.Fail(domain.CodeNoPackage, "no package %q for %s", req.PackageKey, req.Game))
	}
	rep.PackageKey, rep.Region, rep.Required = pkg.Key, pkg.Region, pkg.Total()

	if err := uc.Lock.Acquire(ctx); err != nil {
		return reject(rep, fmt.Errorf("wait for transaction slot: %w", err))
	}
	defer uc.Lock.Release()

	bal, err := uc.Ledger.Balance(ctx)
	if err != nil {
		return reject(rep, fmt.Errorf("read wallet: %w", err))
	}
	rep.Initial = bal.Get(pkg.Region)
	rep.Final = rep.Initial
	if rep.Initial.LessThan(rep.Required) {
		return reject(rep, domain.Fail(domain.CodeInsufficientFunds, "need %s %s, wallet has %s %s",
			rep.Required.StringFixed(2), pkg.Region, rep.Initial.StringFixed(2), pkg.Region))
	}

	log := uc.logger().With("requester", req.Requester, "package", pkg.Key, "account_id", req.AccountID, "zone_id", req.ZoneID)
	log.Info("fulfillment started", "items", len(pkg.Items), "required", rep.Required.StringFixed(2))

	spent := decimal.Zero
	var (
		seen     []string
		firstErr error
		assumed  bool
	)
	for i, item := range pkg.Items {
		if i > 0 {
			if err := uc.pause(ctx); err != nil {
				rep.FailCount++
				firstErr = fmt.Errorf("wait between items: %w", err)
				log.Warn("order abandoned between items", "item", i, "err", err)
				break
			}
		}
		res, err := uc.Purchaser.Purchase(ctx, domain.PurchaseRequest{
			Game:      pkg.Game,
			Region:    pkg.Region,
			AccountID: req.AccountID,
			ZoneID:    req.ZoneID,
			ProductID: item.ProductID,
			Seen:      seen,
		})
		if err != nil {
			rep.FailCount++
			firstErr = err
			log.Warn("line-item failed", "item", i, "product_id", item.ProductID, "code", domain.CodeOf(err), "err", err)
			break
		}
		rep.SuccessCount++
		spent = spent.Add(item.Price)
		if rep.DisplayName == "" {
			rep.DisplayName = res.DisplayName
		}
		if !slices.Contains(seen, res.Transaction.ID) {
			seen = append(seen, res.Transaction.ID)
			rep.Transactions = append(rep.Transactions, res.Transaction)
			assumed = assumed || res.Transaction.Assumed
		}
		log.Info("line-item purchased", "item", i, "product_id", item.ProductID, "transaction_id", res.Transaction.ID, "assumed", res.Transaction.Assumed)
	}
	rep.Spent = domain.Round2(spent)

	if firstErr != nil {
		firstErr = uc.afterCredentialProblem(ctx, firstErr)
	}
	if rep.SuccessCount == 0 {
		return reject(rep, firstErr)
	}

	// позиции куплены: списание должно пройти, даже если клиент ушёл
	settleCtx := context.WithoutCancel(ctx)
	rec := domain.NewOrderRecord(uc.now(), uc.Location, domain.OrderRecord{
		Requester:   req.Requester,
		AccountID:   req.AccountID,
		ZoneID:      req.ZoneID,
		ItemKey:     pkg.Key,
		Game:        pkg.Game,
		Region:      pkg.Region,
		Price:       rep.Spent,
		OrderID:     domain.JoinTransactionIDs(rep.Transactions),
		Approximate: assumed,
	})
	bal, rec, err = uc.Ledger.Settle(settleCtx, pkg.Region, rep.Spent, rec)
	rep.Status = domain.ReportSettled
	rep.Record = &rec
	if err != nil {
		log.Error("settlement failed", "spent", rep.Spent.StringFixed(2), "err", err)
		rep.Code, rep.Message = domain.CodeSystemError, err.Error()
		return rep
	}
	rep.Final = bal.Get(pkg.Region)
	if firstErr != nil {
		rep.Code, rep.Message = domain.CodeOf(firstErr), domain.MessageOf(firstErr)
		rep.Retryable = rep.Code.Retryable()
	}
	log.Info("fulfillment settled", "spent", rep.Spent.StringFixed(2), "success", rep.SuccessCount, "fail", rep.FailCount)

	if uc.Events != nil {
		if err := uc.Events.PublishOrder(settleCtx, rec); err != nil {
			log.Warn("publish settled order", "err", err)
		}
	}
	return rep
}

// afterCredentialProblem — единственная попытка обновить устаревшую сессию;
// ошибка переформулируется так, чтобы клиент повторил заказ.
func (uc *Fulfill) afterCredentialProblem(ctx context.Context, err error) error {
	code := domain.CodeOf(err)
	if !code.CredentialProblem() || uc.Session == nil {
		return err
	}
	if rerr := uc.Session.Refresh(ctx); rerr != nil {
		uc.logger().Error("session refresh failed", "trigger", code, "err", rerr)
		return domain.Fail(domain.CodeSessionExpired, "%s; automatic login failed, set a new credential", domain.MessageOf(err))
	}
	return domain.Fail(domain.CodeSessionRenewed, "session renewed; submit the order again")
}

func reject(rep domain.FulfillmentReport, err error) domain.FulfillmentReport {
	rep.Status = domain.ReportRejected
	rep.Code = domain.CodeOf(err)
	rep.Message = domain.MessageOf(err)
	rep.Retryable = rep.Code.Retryable()
	return rep
}

// pause — случайная пауза между позициями; прерывается отменой ctx.
func (uc *Fulfill) pause(ctx context.Context) error {
	d := uc.ItemDelayMin
	if span := uc.ItemDelayMax - uc.ItemDelayMin; span > 0 {
		d += rand.N(span + 1)
	}
	if d <= 0 {
		return ctx.Err()
	}
	if uc.Pause != nil {
		uc.Pause(d)
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (uc *Fulfill) now() time.Time {
	if uc.Now != nil {
		return uc.Now()
	}
	return time.Now()
}

func (uc *Fulfill) logger() *slog.Logger {
	if uc.Logger != nil {
		return uc.Logger
	}
	return slog.Default()
}
