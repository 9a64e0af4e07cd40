package domain

import "github.com/shopspring/decimal"

// Game — игра, для которой витрина продаёт валюту.
type Game string

const (
	GameMLBB Game = "mlbb"
	GameMCC  Game = "mcc"
)

// LineItem — одна позиция витрины внутри пакета.
type LineItem struct {
	ProductID string          `json:"pid"`
	Price     decimal.Decimal `json:"price"`
	Name      string          `json:"name"`
}

// Package — пакет каталога: упорядоченный список позиций в одном регионе.
type Package struct {
	Key    string     `json:"key"`
	Game   Game       `json:"game"`
	Region Region     `json:"region"`
	Items  []LineItem `json:"items"`
}

// Total — сумма цен позиций пакета.
func (p Package) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range p.Items {
		total = total.Add(it.Price)
	}
	return Round2(total)
}
