package domain

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// State — всё персистентное состояние процесса: allow-list, общий кошелёк,
// действующий cookie и журнал заказов. Меняется только через StateStore.Update.
type State struct {
	Users  UserSet       `json:"users"`
	Wallet Balances      `json:"shared_wallet"`
	Cookie string        `json:"cookie"`
	Orders []OrderRecord `json:"orders"`
}

// NewState — пустое состояние с владельцем owner.
func NewState(owner string) State {
	s := State{}
	s.Normalize(owner)
	return s
}

// Normalize — заполнить умолчания для полей, которых нет в старых файлах состояния.
func (s *State) Normalize(owner string) {
	if owner = NormalizeIdentity(owner); owner != "" && !s.Users.Contains(owner) {
		s.Users = append(UserSet{owner}, s.Users...)
	}
	if s.Users == nil {
		s.Users = UserSet{}
	}
	if s.Orders == nil {
		s.Orders = []OrderRecord{}
	}
}

// Credit — добавить положительную сумму к балансу региона.
func (s *State) Credit(r Region, amount decimal.Decimal) error {
	amount = Round2(amount)
	if !amount.IsPositive() {
		return ErrValidation
	}
	s.Wallet.set(r, Round2(s.Wallet.Get(r).Add(amount)))
	return nil
}

// Debit — списать положительную сумму; баланс не уходит в минус.
func (s *State) Debit(r Region, amount decimal.Decimal) error {
	amount = Round2(amount)
	if !amount.IsPositive() {
		return ErrValidation
	}
	next := Round2(s.Wallet.Get(r).Sub(amount))
	if next.IsNegative() {
		return ErrInsufficientFunds
	}
	s.Wallet.set(r, next)
	return nil
}

// AppendOrder — сохранить rec и урезать историю заказчика до limit записей.
// Первыми вытесняются самые старые по timestamp; чужие записи не трогаются.
func (s *State) AppendOrder(rec OrderRecord, limit int) {
	s.Orders = append(s.Orders, rec)
	var idx []int
	for i, o := range s.Orders {
		if o.Requester == rec.Requester {
			idx = append(idx, i)
		}
	}
	if limit <= 0 || len(idx) <= limit {
		return
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return s.Orders[idx[a]].Timestamp < s.Orders[idx[b]].Timestamp
	})
	evict := make(map[int]struct{}, len(idx)-limit)
	for _, i := range idx[:len(idx)-limit] {
		evict[i] = struct{}{}
	}
	kept := s.Orders[:0]
	for i, o := range s.Orders {
		if _, drop := evict[i]; !drop {
			kept = append(kept, o)
		}
	}
	s.Orders = kept
}

// History — до limit записей заказчика, сначала свежие.
func (s State) History(requester string, limit int) []OrderRecord {
	var out []OrderRecord
	for i := len(s.Orders) - 1; i >= 0; i-- {
		if s.Orders[i].Requester == requester {
			out = append(out, s.Orders[i])
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Timestamp > out[b].Timestamp })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// PurgeHistory — удалить все записи заказчика и вернуть их число.
func (s *State) PurgeHistory(requester string) int {
	kept := s.Orders[:0]
	for _, o := range s.Orders {
		if o.Requester != requester {
			kept = append(kept, o)
		}
	}
	n := len(s.Orders) - len(kept)
	s.Orders = kept
	return n
}

// NormalizeIdentity — handle в нижнем регистре без ведущего '@'.
func NormalizeIdentity(id string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(id), "@"))
}

// UserSet — множество разрешённых идентичностей (числовой id или handle).
type UserSet []string

func (u UserSet) Contains(id string) bool {
	id = NormalizeIdentity(id)
	if id == "" {
		return false
	}
	for _, v := range u {
		if v == id {
			return true
		}
	}
	return false
}

// Add — добавить id; false, если он уже есть.
func (u *UserSet) Add(id string) bool {
	id = NormalizeIdentity(id)
	if id == "" || u.Contains(id) {
		return false
	}
	*u = append(*u, id)
	return true
}

// Remove — удалить id; false, если его не было.
func (u *UserSet) Remove(id string) bool {
	id = NormalizeIdentity(id)
	for i, v := range *u {
		if v == id {
			*u = append((*u)[:i], (*u)[i+1:]...)
			return true
		}
	}
	return false
}

// UnmarshalJSON — принимает текущий вид списка и старый вид объекта,
// где идентификаторы были ключами.
func (u *UserSet) UnmarshalJSON(b []byte) error {
	var list []json.RawMessage
	if err := json.Unmarshal(b, &list); err == nil {
		out := make(UserSet, 0, len(list))
		for _, raw := range list {
			out.Add(scalarString(raw))
		}
		*u = out
		return nil
	}
	var legacy map[string]json.RawMessage
	if err := json.Unmarshal(b, &legacy); err != nil {
		return err
	}
	keys := make([]string, 0, len(legacy))
	for k := range legacy {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(UserSet, 0, len(keys))
	for _, k := range keys {
		out.Add(k)
	}
	*u = out
	return nil
}

// scalarString — JSON-строка или число в виде текста.
func scalarString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
