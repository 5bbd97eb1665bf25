// Package anchorfile persists the anchor as a single MM/DD/YYYY value in
// a plain-text file. It pairs with backends whose store has no natural
// place for scalar state.
package anchorfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pdroll/internal/core"
	"pdroll/internal/portfolio"
)

type Store struct {
	path string
}

var _ portfolio.AnchorStore = (*Store)(nil)

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) ReadAnchor(_ context.Context) (core.Month, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return core.Month{}, fmt.Errorf("%s: %w", s.path, core.ErrConfigMissing)
	}
	if err != nil {
		return core.Month{}, fmt.Errorf("read anchor file %s: %w", s.path, err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return core.Month{}, fmt.Errorf("%s is empty: %w", s.path, core.ErrConfigMissing)
	}
	m, err := core.ParseMonthDate(text)
	if err != nil {
		return core.Month{}, fmt.Errorf("%s: %v: %w", s.path, err, core.ErrConfigInvalid)
	}
	return m, nil
}

func (s *Store) WriteAnchor(_ context.Context, m core.Month) error {
	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create anchor directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, []byte(core.FormatMonthDate(m)+"\n"), 0644); err != nil {
		return fmt.Errorf("write anchor file %s: %w", s.path, err)
	}
	return nil
}
