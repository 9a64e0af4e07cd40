package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/topup-wallet-engine/internal/domain"
	"github.com/example/topup-wallet-engine/internal/usecase"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

const (
	headerRequester = "X-Requester"
	headerHandle    = "X-Requester-Handle"
	maxRequestBody  = 64 << 10
)

// PackageLister — прайс-лист каталога.
type PackageLister interface {
	List(game domain.Game, region domain.Region) []domain.Package
}

// Server — командный API поверх usecase-слоя. Вызывающий представляется
// заголовками X-Requester (числовой id) и X-Requester-Handle (@handle).
type Server struct {
	Router *mux.Router

	Access   *usecase.Access
	Ledger   *usecase.Ledger
	Fulfill  *usecase.Fulfill
	Redeem   *usecase.RedeemCode
	Lookup   *usecase.LookupAccount
	Packages PackageLister
	Official domain.BalanceCache
	Logger   *slog.Logger
}

type Deps struct {
	Access   *usecase.Access
	Ledger   *usecase.Ledger
	Fulfill  *usecase.Fulfill
	Redeem   *usecase.RedeemCode
	Lookup   *usecase.LookupAccount
	Packages PackageLister
	Official domain.BalanceCache
	Logger   *slog.Logger
}

func NewServer(d Deps) *Server {
	s := &Server{
		Router:   mux.NewRouter(),
		Access:   d.Access,
		Ledger:   d.Ledger,
		Fulfill:  d.Fulfill,
		Redeem:   d.Redeem,
		Lookup:   d.Lookup,
		Packages: d.Packages,
		Official: d.Official,
		Logger:   d.Logger,
	}
	if s.Logger == nil {
		s.Logger = slog.Default()
	}

	api := s.Router.PathPrefix("/api").Subrouter()
	api.Use(s.requireMember)
	api.HandleFunc("/orders", s.handleOrder).Methods(http.MethodPost)
	api.HandleFunc("/redeem", s.handleRedeem).Methods(http.MethodPost)
	api.HandleFunc("/balance", s.handleBalance).Methods(http.MethodGet)
	api.HandleFunc("/balance/official", s.handleOfficialBalance).Methods(http.MethodGet)
	api.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	api.HandleFunc("/history", s.handlePurgeHistory).Methods(http.MethodDelete)
	api.HandleFunc("/packages", s.handlePackages).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{account}/{zone}", s.handleLookup).Methods(http.MethodGet)

	owner := api.NewRoute().Subrouter()
	owner.Use(s.requireOwner)
	owner.HandleFunc("/credential", s.handleSetCredential).Methods(http.MethodPut)
	owner.HandleFunc("/users", s.handleListUsers).Methods(http.MethodGet)
	owner.HandleFunc("/users", s.handleAddUser).Methods(http.MethodPost)
	owner.HandleFunc("/users/{identity}", s.handleRemoveUser).Methods(http.MethodDelete)

	s.Router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodGet)
	return s
}

type callerKey struct{}

type caller struct {
	ID     string
	Handle string
}

func (c caller) identities() []string {
	var ids []string
	if c.ID != "" {
		ids = append(ids, c.ID)
	}
	if c.Handle != "" {
		ids = append(ids, c.Handle)
	}
	return ids
}

func callerFrom(ctx context.Context) caller {
	c, _ := ctx.Value(callerKey{}).(caller)
	return c
}

func (s *Server) requireMember(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := caller{
			ID:     strings.TrimSpace(r.Header.Get(headerRequester)),
			Handle: strings.TrimSpace(r.Header.Get(headerHandle)),
		}
		if c.ID == "" && c.Handle == "" {
			writeFailure(w, http.StatusUnauthorized, domain.CodeUnauthorized, "missing "+headerRequester+" header")
			return
		}
		ok, err := s.Access.IsAuthorized(r.Context(), c.identities()...)
		if err != nil {
			s.Logger.Error("authorize", "requester", c.ID, "err", err)
			writeFailure(w, http.StatusInternalServerError, domain.CodeSystemError, "state unavailable")
			return
		}
		if !ok {
			writeFailure(w, http.StatusForbidden, domain.CodeUnauthorized, "not on the allow-list")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerKey{}, c)))
	})
}

func (s *Server) requireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.Access.IsOwner(callerFrom(r.Context()).identities()...) {
			writeFailure(w, http.StatusForbidden, domain.CodeUnauthorized, "owner only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type orderRequest struct {
	Game      domain.Game `json:"game"`
	AccountID string      `json:"account_id"`
	ZoneID    string      `json:"zone_id"`
	Package   string      `json:"package"`
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.AccountID == "" || req.ZoneID == "" || req.Package == "" {
		writeFailure(w, http.StatusBadRequest, domain.CodeSystemError, "account_id, zone_id and package are required")
		return
	}
	rep := s.Fulfill.Execute(r.Context(), usecase.FulfillRequest{
		Requester:  callerFrom(r.Context()).requester(),
		Game:       gameOf(string(req.Game)),
		AccountID:  req.AccountID,
		ZoneID:     req.ZoneID,
		PackageKey: req.Package,
	})
	status := http.StatusOK
	if rep.Status == domain.ReportRejected {
		status = statusFor(rep.Code)
	}
	writeJSON(w, status, rep)
}

type redeemRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rep := s.Redeem.Execute(r.Context(), callerFrom(r.Context()).requester(), strings.TrimSpace(req.Code))
	status := http.StatusOK
	if rep.Failure != "" {
		status = statusFor(rep.Failure)
	}
	writeJSON(w, status, rep)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	bal, err := s.Ledger.Balance(r.Context())
	if err != nil {
		s.internalError(w, "read balance", err)
		return
	}
	writeJSON(w, http.StatusOK, bal)
}

type officialBalance struct {
	BR        json.Number `json:"br_balance"`
	PH        json.Number `json:"ph_balance"`
	CheckedAt time.Time   `json:"checked_at"`
}

func (s *Server) handleOfficialBalance(w http.ResponseWriter, _ *http.Request) {
	if s.Official == nil {
		writeFailure(w, http.StatusNotFound, domain.CodeSystemError, "no storefront reading yet")
		return
	}
	bal, at, ok := s.Official.Get()
	if !ok {
		writeFailure(w, http.StatusNotFound, domain.CodeSystemError, "no storefront reading yet")
		return
	}
	writeJSON(w, http.StatusOK, officialBalance{BR: domain.Amount(bal.BR), PH: domain.Amount(bal.PH), CheckedAt: at})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeFailure(w, http.StatusBadRequest, domain.CodeSystemError, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	recs, err := s.Ledger.QueryHistory(r.Context(), callerFrom(r.Context()).requester(), limit)
	if err != nil {
		s.internalError(w, "query history", err)
		return
	}
	if recs == nil {
		recs = []domain.OrderRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handlePurgeHistory(w http.ResponseWriter, r *http.Request) {
	n, err := s.Ledger.PurgeHistory(r.Context(), callerFrom(r.Context()).requester())
	if err != nil {
		s.internalError(w, "purge history", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": n})
}

type packageView struct {
	domain.Package
	Total decimal.Decimal `json:"total"`
}

func (s *Server) handlePackages(w http.ResponseWriter, r *http.Request) {
	game := gameOf(r.URL.Query().Get("game"))
	region, err := domain.ParseRegion(r.URL.Query().Get("region"))
	if err != nil {
		writeFailure(w, http.StatusBadRequest, domain.CodeSystemError, err.Error())
		return
	}
	out := []packageView{}
	for _, p := range s.Packages.List(game, region) {
		out = append(out, packageView{Package: p, Total: p.Total()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	game := gameOf(r.URL.Query().Get("game"))
	region, err := domain.ParseRegion(r.URL.Query().Get("region"))
	if err != nil {
		writeFailure(w, http.StatusBadRequest, domain.CodeSystemError, err.Error())
		return
	}
	name, err := s.Lookup.Execute(r.Context(), game, region, vars["account"], vars["zone"])
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeFailure(w, http.StatusBadRequest, domain.CodeSystemError, err.Error())
			return
		}
		code := domain.CodeOf(err)
		writeFailure(w, statusFor(code), code, domain.MessageOf(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"account_id":   vars["account"],
		"zone_id":      vars["zone"],
		"display_name": name,
	})
}

func (s *Server) handleSetCredential(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		writeFailure(w, http.StatusBadRequest, domain.CodeSystemError, "read body")
		return
	}
	cred, err := s.Access.SetCredential(r.Context(), string(raw))
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeFailure(w, http.StatusBadRequest, domain.CodeNoToken, err.Error())
			return
		}
		s.internalError(w, "set credential", err)
		return
	}
	names := make([]string, 0, len(cred.Tokens()))
	for _, t := range cred.Tokens() {
		names = append(names, t.Name)
	}
	s.Logger.Info("credential replaced", "tokens", names)
	writeJSON(w, http.StatusOK, map[string]any{"tokens": names})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.Access.ListUsers(r.Context())
	if err != nil {
		s.internalError(w, "list users", err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

type userRequest struct {
	ID string `json:"id"`
}

func (s *Server) handleAddUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !decodeBody(w, r, &req) {
		return
	}
	added, err := s.Access.AddUser(r.Context(), req.ID)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeFailure(w, http.StatusBadRequest, domain.CodeSystemError, err.Error())
			return
		}
		s.internalError(w, "add user", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"added": added})
}

func (s *Server) handleRemoveUser(w http.ResponseWriter, r *http.Request) {
	removed, err := s.Access.RemoveUser(r.Context(), mux.Vars(r)["identity"])
	if err != nil {
		if errors.Is(err, domain.ErrOwnerImmutable) {
			writeFailure(w, http.StatusConflict, domain.CodeUnauthorized, err.Error())
			return
		}
		s.internalError(w, "remove user", err)
		return
	}
	if !removed {
		writeFailure(w, http.StatusNotFound, domain.CodeSystemError, domain.ErrNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"removed": true})
}

// gameOf — игра из запроса без учёта регистра; пусто означает MLBB.
func gameOf(s string) domain.Game {
	if g := domain.Game(strings.ToLower(strings.TrimSpace(s))); g != "" {
		return g
	}
	return domain.GameMLBB
}

// requester — id для записей заказов: числовой, если он есть.
func (c caller) requester() string {
	if c.ID != "" {
		return c.ID
	}
	return domain.NormalizeIdentity(c.Handle)
}

func statusFor(code domain.FailureCode) int {
	switch code {
	case domain.CodeNoPackage, domain.CodeInvalidAccount, domain.CodeInvalidCode:
		return http.StatusUnprocessableEntity
	case domain.CodeInsufficientFunds:
		return http.StatusPaymentRequired
	case domain.CodeUnauthorized:
		return http.StatusForbidden
	case domain.CodeNoToken, domain.CodeSessionExpired, domain.CodeSessionRenewed:
		return http.StatusServiceUnavailable
	case domain.CodeBlocked, domain.CodeRejected, domain.CodePaymentFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type failureBody struct {
	Code    domain.FailureCode `json:"code"`
	Message string             `json:"message"`
}

func writeFailure(w http.ResponseWriter, status int, code domain.FailureCode, msg string) {
	writeJSON(w, status, failureBody{Code: code, Message: msg})
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	s.Logger.Error(op, "err", err)
	writeFailure(w, http.StatusInternalServerError, domain.CodeSystemError, op+" failed")
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(dst); err != nil {
		writeFailure(w, http.StatusBadRequest, domain.CodeSystemError, "malformed JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
