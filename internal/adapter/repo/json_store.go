package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/example/topup-wallet-engine/internal/domain"
)

// JSONStateStore — всё состояние в одном JSON-файле.
// Каждый вызов перечитывает файл; запись идёт во временный файл, который затем заменяет исходный.
type JSONStateStore struct {
	Path  string
	Owner string

	mu sync.Mutex
}

func NewJSONStateStore(path, owner string) *JSONStateStore {
	return &JSONStateStore{Path: path, Owner: owner}
}

func (s *JSONStateStore) View(ctx context.Context, fn func(domain.State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.load()
	if err != nil {
		return err
	}
	return fn(st)
}

func (s *JSONStateStore) Update(ctx context.Context, fn func(*domain.State) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(&st); err != nil {
		return err
	}
	return s.save(st)
}

// load — начальное состояние, если файла ещё нет.
// Существующий, но нечитаемый файл — ошибка: умолчания стёрли бы кошелёк.
func (s *JSONStateStore) load() (domain.State, error) {
	raw, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.NewState(s.Owner), nil
	}
	if err != nil {
		return domain.State{}, fmt.Errorf("read state: %w", err)
	}
	var st domain.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return domain.State{}, fmt.Errorf("decode state %s: %w", s.Path, err)
	}
	st.Normalize(s.Owner)
	return st, nil
}

func (s *JSONStateStore) save(st domain.State) error {
	if dir := filepath.Dir(s.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := s.Path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "    ")
	if err := enc.Encode(st); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, s.Path)
}

var _ domain.StateStore = (*JSONStateStore)(nil)
