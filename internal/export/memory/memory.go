// Package memory is an in-process statement appender for tests and
// local development.
package memory

import (
	"context"
	"sync"

	"banko/internal/export"
)

type Store struct {
	mu   sync.Mutex
	rows []export.StatementRow
	err  error
}

var _ export.Appender = (*Store)(nil)

func New() *Store {
	return &Store{}
}

func (s *Store) AppendStatementRow(_ context.Context, row export.StatementRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.rows = append(s.rows, row)
	return nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []export.StatementRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]export.StatementRow, len(s.rows))
	copy(out, s.rows)
	return out
}

// FailWith makes subsequent appends return err. Pass nil to recover.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}
