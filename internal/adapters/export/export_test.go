package export

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avdeev/steamloot/internal/domain"
)

func TestFileSinkAppendsSuccessesOnly(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "looted.txt")
	sink := NewFileSink(path)

	ctx := context.Background()
	require.NoError(t, sink.Looted(ctx, domain.LootOutcome{Login: "alice", Success: true, ItemCount: 3}))
	require.NoError(t, sink.Looted(ctx, domain.LootOutcome{Login: "bob", Success: false}))
	require.NoError(t, sink.Looted(ctx, domain.LootOutcome{Login: "carol", Success: true}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "alice\ncarol\n", string(data))
}

func TestFileSinkConcurrentWrites(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "looted.txt")
	sink := NewFileSink(path)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = sink.Looted(context.Background(), domain.LootOutcome{Login: "acc", Success: true})
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := 0
	for _, b := range data {
		if b == '\n' {
			lines++
		}
	}
	assert.Equal(t, 20, lines)
}
