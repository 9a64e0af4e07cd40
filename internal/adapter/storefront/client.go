// Package storefront — мерчант-протокол витрины пополнений: покупка,
// поиск аккаунта, активация кодов и чтение балансов.
// Каждый запрос несёт общий cookie сессии и проходит через лимитер.
package storefront

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/topup-wallet-engine/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const maxBody = 4 << 20

type Options struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	HistoryRetryDelay time.Duration
	RedeemSettleDelay time.Duration
	Logger            *slog.Logger
}

// Client — клиент витрины поверх общей сессии.
type Client struct {
	base      string
	userAgent string
	http      *http.Client
	session   domain.SessionProvider
	limiter   *rate.Limiter
	logger    *slog.Logger

	historyRetryDelay time.Duration
	redeemSettleDelay time.Duration
	// newPlaceholder — локальный id, когда витрина так и не сообщила свой.
	newPlaceholder func() string
	sleep          func(time.Duration)
}

func NewClient(session domain.SessionProvider, opts Options) *Client {
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		base:              strings.TrimRight(opts.BaseURL, "/"),
		userAgent:         opts.UserAgent,
		http:              &http.Client{Timeout: opts.Timeout},
		session:           session,
		limiter:           rate.NewLimiter(limit, 3),
		logger:            logger,
		historyRetryDelay: opts.HistoryRetryDelay,
		redeemSettleDelay: opts.RedeemSettleDelay,
		newPlaceholder:    func() string { return "AUTO_" + uuid.NewString() },
		sleep:             time.Sleep,
	}
}

// request — одно обращение к витрине.
type request struct {
	method  string
	url     string
	form    url.Values
	query   url.Values
	referer string
	ajax    bool
}

func (c *Client) do(ctx context.Context, cred domain.Credential, req request) (response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return response{}, err
	}
	target := req.url
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}
	var body io.Reader
	if req.form != nil {
		body = strings.NewReader(req.form.Encode())
	}
	hr, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return response{}, err
	}
	if c.userAgent != "" {
		hr.Header.Set("User-Agent", c.userAgent)
	}
	if h := cred.Header(); h != "" {
		hr.Header.Set("Cookie", h)
	}
	if req.referer != "" {
		hr.Header.Set("Referer", req.referer)
	}
	if req.ajax {
		hr.Header.Set("X-Requested-With", "XMLHttpRequest")
		hr.Header.Set("Origin", c.base)
	} else {
		hr.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	}
	if req.form != nil {
		hr.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	}

	resp, err := c.http.Do(hr)
	if err != nil {
		return response{}, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return response{}, err
	}
	return newResponse(resp.StatusCode, resp.Request.URL.String(), raw), nil
}

// verified — состояние после стартовой страницы, токена и проверки аккаунта.
type verified struct {
	cred        domain.Credential
	token       string
	displayName string
}

// verify — шаги 1-3: стартовая страница, анти-CSRF токен, проверка аккаунта.
func (c *Client) verify(ctx context.Context, ep purchaseEndpoints, accountID, zoneID string) (verified, error) {
	cred, err := c.session.Session(ctx)
	if err != nil {
		return verified{}, fmt.Errorf("load session: %w", err)
	}
	landing, err := c.do(ctx, cred, request{method: http.MethodGet, url: ep.Landing, referer: ep.Landing, ajax: true})
	if err != nil {
		return verified{}, fmt.Errorf("landing page: %w", err)
	}
	if err := interpretLanding(landing); err != nil {
		return verified{}, err
	}
	token, ok := extractToken(landing.Text)
	if !ok {
		return verified{}, domain.Fail(domain.CodeNoToken, "anti-forgery token not found; set a fresh credential")
	}

	role, err := c.do(ctx, cred, request{
		method:  http.MethodPost,
		url:     ep.CheckRole,
		form:    url.Values{"user_id": {accountID}, "zone_id": {zoneID}, "_csrf": {token}},
		referer: ep.Landing,
		ajax:    true,
	})
	if err != nil {
		return verified{}, fmt.Errorf("check role: %w", err)
	}
	name, err := interpretRole(role)
	if err != nil {
		return verified{}, err
	}
	return verified{cred: cred, token: token, displayName: name}, nil
}

// LookupAccount — игровое имя аккаунта.
func (c *Client) LookupAccount(ctx context.Context, game domain.Game, region domain.Region, accountID, zoneID string) (string, error) {
	ep, err := purchaseEndpointsFor(c.base, game, region)
	if err != nil {
		return "", err
	}
	v, err := c.verify(ctx, ep, accountID, zoneID)
	if err != nil {
		return "", err
	}
	return v.displayName, nil
}

// Purchase — полная последовательность для одной позиции. Шаги не повторяются:
// проблема с сессией возвращается как SESSION_EXPIRED, решает вызывающий.
func (c *Client) Purchase(ctx context.Context, req domain.PurchaseRequest) (domain.PurchaseResult, error) {
	ep, err := purchaseEndpointsFor(c.base, req.Game, req.Region)
	if err != nil {
		return domain.PurchaseResult{}, err
	}
	v, err := c.verify(ctx, ep, req.AccountID, req.ZoneID)
	if err != nil {
		return domain.PurchaseResult{}, err
	}

	query, err := c.do(ctx, v.cred, request{
		method: http.MethodPost,
		url:    ep.Query,
		form: url.Values{
			"user_id":        {req.AccountID},
			"zone_id":        {req.ZoneID},
			"pid":            {req.ProductID},
			"checkrole":      {""},
			"pay_methond":    {"smilecoin"},
			"channel_method": {"smilecoin"},
			"_csrf":          {v.token},
		},
		referer: ep.Landing,
		ajax:    true,
	})
	if err != nil {
		return domain.PurchaseResult{}, fmt.Errorf("purchase query: %w", err)
	}
	flowID, err := interpretFlow(query)
	if err != nil {
		return domain.PurchaseResult{}, err
	}

	// после отправки оплаты позиция доводится до конца
	ctx = context.WithoutCancel(ctx)
	pay, err := c.do(ctx, v.cred, request{
		method: http.MethodPost,
		url:    ep.Pay,
		form: url.Values{
			"_csrf":          {v.token},
			"user_id":        {req.AccountID},
			"zone_id":        {req.ZoneID},
			"pay_methond":    {"smilecoin"},
			"product_id":     {req.ProductID},
			"channel_method": {"smilecoin"},
			"flowid":         {flowID},
			"email":          {""},
			"coupon_id":      {""},
		},
		referer: ep.Landing,
		ajax:    true,
	})
	if err != nil {
		return domain.PurchaseResult{}, fmt.Errorf("payment: %w", err)
	}
	txID, err := interpretPayment(pay)
	if err != nil {
		return domain.PurchaseResult{}, err
	}

	ref := domain.TransactionRef{ID: txID}
	if ref.ID == "" {
		ref.ID = c.resolveFromHistory(ctx, v.cred, ep, req)
	}
	if ref.ID == "" {
		ref = domain.TransactionRef{ID: c.newPlaceholder(), Assumed: true}
		c.logger.Warn("payment succeeded without a transaction id",
			"account_id", req.AccountID, "zone_id", req.ZoneID, "product_id", req.ProductID, "placeholder", ref.ID)
	}
	return domain.PurchaseResult{DisplayName: v.displayName, Transaction: ref}, nil
}

// resolveFromHistory — опрос списка заказов: один раз после фиксированной задержки и один повтор.
func (c *Client) resolveFromHistory(ctx context.Context, cred domain.Credential, ep purchaseEndpoints, req domain.PurchaseRequest) string {
	for attempt := 0; attempt < 2; attempt++ {
		c.sleep(c.historyRetryDelay)
		hist, err := c.do(ctx, cred, request{
			method:  http.MethodGet,
			url:     ep.OrderList,
			query:   url.Values{"type": {"orderlist"}, "p": {"1"}, "pageSize": {"5"}},
			referer: ep.Landing,
			ajax:    true,
		})
		if err != nil {
			c.logger.Warn("order history lookup failed", "attempt", attempt+1, "err", err)
			continue
		}
		if id := interpretHistory(hist, req.AccountID, req.ZoneID, req.Seen); id != "" {
			return id
		}
	}
	return ""
}

var (
	_ domain.Purchaser       = (*Client)(nil)
	_ domain.AccountVerifier = (*Client)(nil)
)
