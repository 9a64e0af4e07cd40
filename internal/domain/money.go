package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Region — валютный регион витрины. Кошелёк ведёт по балансу на каждый регион.
type Region string

const (
	RegionBR Region = "BR"
	RegionPH Region = "PH"
)

// ParseRegion — регион в любом регистре; пустой ввод означает BR, регион витрины по умолчанию.
func ParseRegion(s string) (Region, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "BR":
		return RegionBR, nil
	case "PH":
		return RegionPH, nil
	}
	return "", fmt.Errorf("%w: unknown region %q", ErrValidation, s)
}

// Round2 — округлить сумму до точности кошелька: два знака после точки.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Balances — снимок двух региональных балансов.
type Balances struct {
	BR decimal.Decimal `json:"br_balance"`
	PH decimal.Decimal `json:"ph_balance"`
}

// MarshalJSON — балансы пишутся числами с двумя знаками, как в файле
// состояния, который ведут операторы; decimal по умолчанию пишет строку.
func (b Balances) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		BR json.Number `json:"br_balance"`
		PH json.Number `json:"ph_balance"`
	}{Amount(b.BR), Amount(b.PH)})
}

// Amount — сумма в JSON-виде: число с двумя знаками после точки.
func Amount(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

func (b Balances) Get(r Region) decimal.Decimal {
	if r == RegionPH {
		return b.PH
	}
	return b.BR
}

func (b *Balances) set(r Region, v decimal.Decimal) {
	if r == RegionPH {
		b.PH = v
		return
	}
	b.BR = v
}

// Sub — b минус o по каждому региону; нужен для разницы балансов.
func (b Balances) Sub(o Balances) Balances {
	return Balances{BR: b.BR.Sub(o.BR), PH: b.PH.Sub(o.PH)}
}
