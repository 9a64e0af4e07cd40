package storefront

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/example/topup-wallet-engine/internal/domain"
)

// response — результат одного обращения к витрине: структурированный
// JSON-объект (Fields != nil) либо неструктурированный текст или разметка.
type response struct {
	Status   int
	FinalURL string
	Fields   map[string]any
	Text     string
}

func (r response) Structured() bool { return r.Fields != nil }

func newResponse(status int, finalURL string, body []byte) response {
	r := response{Status: status, FinalURL: finalURL, Text: string(body)}
	dec := json.NewDecoder(bytes.NewReader(bytes.TrimSpace(body)))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err == nil && fields != nil {
		r.Fields = fields
	}
	return r
}

// lookup — первый непустой ключ на верхнем уровне, затем внутри "data".
func (r response) lookup(keys ...string) string {
	for _, k := range keys {
		if v := scalar(r.Fields[k]); v != "" {
			return v
		}
	}
	if data, ok := r.Fields["data"].(map[string]any); ok {
		for _, k := range keys {
			if v := scalar(data[k]); v != "" {
				return v
			}
		}
	}
	return ""
}

// message — человекочитаемое сообщение витрины, если оно есть.
func (r response) message() string {
	return r.lookup("msg", "message")
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	}
	return ""
}

func loginRedirect(r response) bool {
	return strings.Contains(strings.ToLower(r.FinalURL), "login")
}

// interpretLanding — стартовая страница в BLOCKED / SESSION_EXPIRED или nil.
func interpretLanding(r response) error {
	if r.Status == http.StatusForbidden || r.Status == http.StatusServiceUnavailable ||
		strings.Contains(strings.ToLower(r.Text), "cloudflare") {
		return domain.Fail(domain.CodeBlocked, "blocked by anti-bot protection (HTTP %d)", r.Status)
	}
	if loginRedirect(r) {
		return domain.Fail(domain.CodeSessionExpired, "storefront redirected to login")
	}
	return nil
}

// extractToken — прочитать анти-CSRF токен: сначала meta-тег, потом поле формы.
func extractToken(markup string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", false
	}
	if v, ok := doc.Find(`meta[name="csrf-token"]`).First().Attr("content"); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v), true
	}
	if v, ok := doc.Find(`input[name="_csrf"]`).First().Attr("value"); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v), true
	}
	return "", false
}

func interpretRole(r response) (string, error) {
	if !r.Structured() {
		return "", domain.Fail(domain.CodeSystemError, "check role: cannot verify account")
	}
	if name := r.lookup("username"); name != "" {
		return name, nil
	}
	msg := r.message()
	if msg == "" {
		msg = "account not found"
	}
	return "", domain.Fail(domain.CodeInvalidAccount, "%s", msg)
}

func interpretFlow(r response) (string, error) {
	if !r.Structured() {
		if loginRedirect(r) {
			return "", domain.Fail(domain.CodeSessionExpired, "storefront redirected to login")
		}
		return "", domain.Fail(domain.CodeSystemError, "query: unexpected response")
	}
	if id := r.lookup("flowid"); id != "" {
		return id, nil
	}
	msg := r.message()
	low := strings.ToLower(msg)
	if strings.Contains(low, "login") || strings.Contains(low, "unauthorized") {
		return "", domain.Fail(domain.CodeSessionExpired, "%s", msg)
	}
	return "", domain.Fail(domain.CodeRejected, "%s", msg)
}

var successCodes = map[string]bool{"200": true, "0": true, "1": true}

// interpretPayment — при успехе id транзакции из ответа (может быть пустым).
func interpretPayment(r response) (string, error) {
	if !r.Structured() {
		low := strings.ToLower(r.Text)
		if strings.Contains(low, "success") || strings.Contains(low, "sucesso") {
			return "", nil
		}
		return "", domain.Fail(domain.CodePaymentFailed, "insufficient balance or blocked")
	}
	code := scalar(r.Fields["code"])
	if _, present := r.Fields["code"]; !present {
		code = scalar(r.Fields["status"])
	}
	msg := r.message()
	if successCodes[code] || strings.Contains(strings.ToLower(msg), "success") {
		var id string
		if data, ok := r.Fields["data"].(map[string]any); ok {
			id = scalar(data["order_id"])
		}
		if id == "None" || id == "Not found" {
			id = ""
		}
		return id, nil
	}
	if msg == "" {
		msg = "insufficient balance or API error"
	}
	return "", domain.Fail(domain.CodePaymentFailed, "%s", msg)
}

// interpretHistory — самый свежий успешный заказ аккаунта, ещё не принятый.
func interpretHistory(r response, accountID, zoneID string, seen []string) string {
	list, _ := r.Fields["list"].([]any)
	skip := make(map[string]bool, len(seen))
	for _, s := range seen {
		skip[s] = true
	}
	for _, e := range list {
		entry, ok := e.(map[string]any)
		if !ok {
			continue
		}
		id := scalar(entry["increment_id"])
		if id == "" || skip[id] {
			continue
		}
		if scalar(entry["user_id"]) != accountID || scalar(entry["server_id"]) != zoneID {
			continue
		}
		if strings.EqualFold(scalar(entry["order_status"]), "success") || scalar(entry["status"]) == "1" {
			return id
		}
	}
	return ""
}

// interpretCardCheck — принят ли код активации.
func interpretCardCheck(r response) bool {
	if !r.Structured() {
		return false
	}
	code := scalar(r.Fields["code"])
	if _, present := r.Fields["code"]; !present {
		code = scalar(r.Fields["status"])
	}
	return successCodes[code] || code == "201" || strings.Contains(strings.ToLower(r.message()), "success")
}
