// Package catalog — статические таблицы пакетов: пользовательский ключ
// отображается в упорядоченный список товаров витрины.
package catalog

import (
	"sort"
	"strings"

	"github.com/example/topup-wallet-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// Table — таблица пакетов одной игры в одном регионе.
type Table struct {
	Game     domain.Game
	Region   domain.Region
	Packages map[string][]domain.LineItem
}

// Catalog — ищет ключ по таблицам в порядке просмотра; побеждает первая таблица с этим ключом.
type Catalog struct {
	tables []Table
}

func New(tables ...Table) *Catalog {
	return &Catalog{tables: tables}
}

// Default — встроенные таблицы. Ключи MLBB ищутся сначала в таблице
// двойных алмазов, затем в BR, затем в PH.
func Default() *Catalog {
	return New(doubleDiamondBR, mlbbBR, mlbbPH, mccBR)
}

// Resolve — найти пакет по ключу в рамках игры.
func (c *Catalog) Resolve(game domain.Game, key string) (domain.Package, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, t := range c.tables {
		if t.Game != game {
			continue
		}
		if items, ok := t.Packages[key]; ok {
			return domain.Package{
				Key:    key,
				Game:   t.Game,
				Region: t.Region,
				Items:  append([]domain.LineItem(nil), items...),
			}, true
		}
	}
	return domain.Package{}, false
}

// List — все пакеты игры в регионе, от дешёвых к дорогим.
func (c *Catalog) List(game domain.Game, region domain.Region) []domain.Package {
	seen := make(map[string]bool)
	var out []domain.Package
	for _, t := range c.tables {
		if t.Game != game || t.Region != region {
			continue
		}
		for key := range t.Packages {
			if seen[key] {
				continue
			}
			seen[key] = true
			if p, ok := c.Resolve(game, key); ok && p.Region == region {
				out = append(out, p)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if d := out[i].Total().Cmp(out[j].Total()); d != 0 {
			return d < 0
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func li(pid, price, name string) domain.LineItem {
	return domain.LineItem{ProductID: pid, Price: decimal.RequireFromString(price), Name: name}
}
