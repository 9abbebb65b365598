// Package export appends the logins of successfully looted accounts to
// a file, one per line.
package export

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/avdeev/steamloot/internal/domain"
	"github.com/avdeev/steamloot/internal/ports"
)

type FileSink struct {
	path string
	mu   sync.Mutex
}

var _ ports.OutcomeSink = (*FileSink)(nil)

func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// Looted records only successful outcomes; failures are log-only and
// never exported.
func (s *FileSink) Looted(ctx context.Context, outcome domain.LootOutcome) error {
	if !outcome.Success {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open export file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if _, err := fmt.Fprintln(file, outcome.Login); err != nil {
		return fmt.Errorf("append export file: %w", err)
	}

	return nil
}
