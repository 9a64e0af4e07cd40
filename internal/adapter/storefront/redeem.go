package storefront

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/example/topup-wallet-engine/internal/domain"
)

// Redeem — активировать предоплаченный код в регионе. Зачислено столько, на сколько
// вырос баланс вокруг оплаты; ноль означает, что прирост пока не виден.
func (c *Client) Redeem(ctx context.Context, region domain.Region, code string) (domain.RedeemOutcome, error) {
	ep := redeemEndpointsFor(c.base, region)
	cred, err := c.session.Session(ctx)
	if err != nil {
		return domain.RedeemOutcome{}, fmt.Errorf("load session: %w", err)
	}

	page, err := c.do(ctx, cred, request{method: http.MethodGet, url: ep.Page, referer: ep.Referer})
	if err != nil {
		return domain.RedeemOutcome{}, fmt.Errorf("activation page: %w", err)
	}
	if err := interpretLanding(page); err != nil {
		return domain.RedeemOutcome{}, err
	}
	token, ok := extractToken(page.Text)
	if !ok {
		return domain.RedeemOutcome{}, domain.Fail(domain.CodeNoToken, "anti-forgery token not found")
	}

	check, err := c.do(ctx, cred, request{
		method:  http.MethodPost,
		url:     ep.Check,
		form:    url.Values{"_csrf": {token}, "pin": {code}},
		referer: ep.Referer,
		ajax:    true,
	})
	if err != nil {
		return domain.RedeemOutcome{}, fmt.Errorf("check card: %w", err)
	}
	if !interpretCardCheck(check) {
		return domain.RedeemOutcome{}, domain.Fail(domain.CodeInvalidCode, "code is invalid or already used")
	}

	before, err := c.probeAt(ctx, ep.Balances)
	if err != nil {
		return domain.RedeemOutcome{}, fmt.Errorf("balance before redeem: %w", err)
	}

	ctx = context.WithoutCancel(ctx)
	pay, err := c.do(ctx, cred, request{
		method:  http.MethodPost,
		url:     ep.Pay,
		form:    url.Values{"_csrf": {token}, "sec": {code}},
		referer: ep.Referer,
		ajax:    true,
	})
	if err != nil {
		return domain.RedeemOutcome{}, fmt.Errorf("redeem payment: %w", err)
	}
	if _, err := interpretPayment(pay); err != nil || !pay.Structured() {
		return domain.RedeemOutcome{}, domain.Fail(domain.CodePaymentFailed, "redeem payment failed")
	}

	c.sleep(c.redeemSettleDelay)
	after, err := c.probeAt(ctx, ep.Balances)
	if err != nil {
		c.logger.Warn("balance after redeem unavailable", "region", region, "err", err)
		return domain.RedeemOutcome{Region: region}, nil
	}
	added := domain.Round2(after.Sub(before).Get(region))
	return domain.RedeemOutcome{Region: region, Added: added}, nil
}

var _ domain.CodeRedeemer = (*Client)(nil)
