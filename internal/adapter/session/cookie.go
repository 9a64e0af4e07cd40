package session

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/example/topup-wallet-engine/internal/domain"
)

// Токены, которые извлекаются из вставленного дампа браузера: таблица devtools, JSON или заголовок.
var dumpPatterns = []struct {
	name     string
	re       *regexp.Regexp
	required bool
}{
	{"PHPSESSID", dumpRe("PHPSESSID"), true},
	{"cf_clearance", dumpRe("cf_clearance"), true},
	{"__cf_bm", dumpRe("__cf_bm"), false},
	{"_did", dumpRe("_did"), false},
}

func dumpRe(name string) *regexp.Regexp {
	return regexp.MustCompile(`['"]?` + regexp.QuoteMeta(name) + `['"]?\s*[:=]\s*['"]?([^'";\s,}]+)['"]?`)
}

// ParseCookieDump — извлечь токены сессии из дампа произвольного вида.
// ok ложно, если нет PHPSESSID или cf_clearance.
func ParseCookieDump(text string) (string, bool) {
	var parts []string
	for _, p := range dumpPatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			if p.required {
				return "", false
			}
			continue
		}
		parts = append(parts, p.name+"="+m[1])
	}
	return strings.Join(parts, "; "), true
}

// NormalizeCookie — привести ввод оператора к каноническому виду "k=v; k=v".
// Корректный заголовок Cookie сохраняется целиком, иначе ввод разбирается как дамп.
func NormalizeCookie(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty credential", domain.ErrValidation)
	}
	if isCookieHeader(raw) {
		return domain.Credential{Raw: raw}.Header(), nil
	}
	if cookie, ok := ParseCookieDump(raw); ok {
		return cookie, nil
	}
	return "", fmt.Errorf("%w: credential is neither a cookie header nor a dump with PHPSESSID and cf_clearance", domain.ErrValidation)
}

func isCookieHeader(s string) bool {
	if strings.ContainsAny(s, "\n\r\t\"'{}") {
		return false
	}
	n := 0
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, _, ok := strings.Cut(part, "=")
		if !ok || name == "" || strings.ContainsAny(name, " :") {
			return false
		}
		n++
	}
	return n > 0
}
