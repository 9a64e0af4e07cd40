package storefront

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/example/topup-wallet-engine/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	brBalanceRe = regexp.MustCompile(`(?i)(?:Balance|Saldo)[\s:]*?</p>\s*<p>\s*([\d.,]+)`)
	phBalanceRe = regexp.MustCompile(`(?i)Saldo PH[\s:]*?</span>\s*<span>\s*([\d.,]+)`)
)

// parseBalances — извлечь оба баланса со страницы обзора аккаунта.
// Нераспознанное остаётся нулём; вызывающие считают ноль неизвестным значением.
func parseBalances(markup string) domain.Balances {
	var b domain.Balances
	var doc *goquery.Document
	fallback := func() *goquery.Document {
		if doc == nil {
			doc, _ = goquery.NewDocumentFromReader(strings.NewReader(markup))
		}
		return doc
	}

	if m := brBalanceRe.FindStringSubmatch(markup); m != nil {
		b.BR = parseAmount(m[1])
	} else if d := fallback(); d != nil {
		if p := d.Find("div.balance-coins").First().Find("p"); p.Length() >= 2 {
			b.BR = parseAmount(p.Eq(1).Text())
		}
	}
	if m := phBalanceRe.FindStringSubmatch(markup); m != nil {
		b.PH = parseAmount(m[1])
	} else if d := fallback(); d != nil {
		if s := d.Find("div#all-balance").First().Find("span"); s.Length() >= 2 {
			b.PH = parseAmount(s.Eq(1).Text())
		}
	}
	return b
}

func parseAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	if err != nil {
		return decimal.Zero
	}
	return domain.Round2(d)
}

// ProbeBalance — прочитать балансы, которые показывает витрина. Возвращаются
// только транспортные ошибки; сбой разбора даёт нулевые балансы.
func (c *Client) ProbeBalance(ctx context.Context) (domain.Balances, error) {
	return c.probeAt(ctx, overviewURL(c.base))
}

func (c *Client) probeAt(ctx context.Context, pageURL string) (domain.Balances, error) {
	cred, err := c.session.Session(ctx)
	if err != nil {
		return domain.Balances{}, err
	}
	page, err := c.do(ctx, cred, request{method: http.MethodGet, url: pageURL, ajax: true})
	if err != nil {
		return domain.Balances{}, err
	}
	return parseBalances(page.Text), nil
}

// CheckSession — keep-alive чтение: пока сессия жива, страница обзора отвечает
// 200 без редиректа на вход.
func (c *Client) CheckSession(ctx context.Context) (bool, domain.Balances, error) {
	cred, err := c.session.Session(ctx)
	if err != nil {
		return false, domain.Balances{}, err
	}
	page, err := c.do(ctx, cred, request{method: http.MethodGet, url: overviewURL(c.base), ajax: true})
	if err != nil {
		return false, domain.Balances{}, err
	}
	if page.Status != http.StatusOK || loginRedirect(page) {
		return false, domain.Balances{}, nil
	}
	return true, parseBalances(page.Text), nil
}

var (
	_ domain.BalanceProber  = (*Client)(nil)
	_ domain.SessionChecker = (*Client)(nil)
)
