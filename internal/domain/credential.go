package domain

import "strings"

// Credential — непрозрачный набор cookie-токенов единственной сессии витрины.
type Credential struct {
	Raw string
}

// Token — одна пара name=value из cookie.
type Token struct {
	Name  string
	Value string
}

func (c Credential) Empty() bool { return len(c.Tokens()) == 0 }

// Tokens — разобрать сырой вид "k=v; k=v", пропуская битые части.
func (c Credential) Tokens() []Token {
	var out []Token
	for _, part := range strings.Split(c.Raw, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || strings.TrimSpace(k) == "" {
			continue
		}
		out = append(out, Token{Name: strings.TrimSpace(k), Value: strings.TrimSpace(v)})
	}
	return out
}

// Header — cookie в виде значения заголовка Cookie.
func (c Credential) Header() string {
	toks := c.Tokens()
	parts := make([]string, 0, len(toks))
	for _, t := range toks {
		parts = append(parts, t.Name+"="+t.Value)
	}
	return strings.Join(parts, "; ")
}
