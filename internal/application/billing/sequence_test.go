package billing_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/nfe-api/internal/application/billing"
)

func TestMemorySequence_IndependientePorModeloYSerie(t *testing.T) {
	seq := billing.NewMemorySequence()
	ctx := context.Background()

	n, err := seq.Next(ctx, 55, "1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, _ = seq.Next(ctx, 55, "1")
	assert.Equal(t, int64(2), n)

	n, _ = seq.Next(ctx, 55, "2")
	assert.Equal(t, int64(1), n)
	n, _ = seq.Next(ctx, 65, "1")
	assert.Equal(t, int64(1), n)
}

func TestMemorySequence_Seed(t *testing.T) {
	seq := billing.NewMemorySequence()
	require.NoError(t, seq.Seed(55, "1", 41))
	n, err := seq.Next(context.Background(), 55, "1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
}

func TestMemorySequence_SerieNormalizada(t *testing.T) {
	seq := billing.NewMemorySequence()
	ctx := context.Background()

	n, err := seq.Next(ctx, 55, "1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = seq.Next(ctx, 55, "001")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n, "\"1\" y \"001\" son la misma série 001 en la chave")

	require.NoError(t, seq.Seed(65, "007", 10))
	n, err = seq.Next(ctx, 65, "7")
	require.NoError(t, err)
	assert.Equal(t, int64(11), n)
}

func TestMemorySequence_SerieInvalida(t *testing.T) {
	seq := billing.NewMemorySequence()
	_, err := seq.Next(context.Background(), 55, "A1")
	assert.Error(t, err)
	assert.Error(t, seq.Seed(55, "1000", 1))
}

func TestMemorySequence_Agotada(t *testing.T) {
	seq := billing.NewMemorySequence()
	require.NoError(t, seq.Seed(55, "1", 999_999_999))
	_, err := seq.Next(context.Background(), 55, "1")
	assert.Error(t, err)
}

func TestMemorySequence_Concurrente(t *testing.T) {
	seq := billing.NewMemorySequence()
	const workers, perWorker = 8, 50

	var mu sync.Mutex
	seen := make(map[int64]bool)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				n, err := seq.Next(context.Background(), 55, "1")
				if err != nil {
					continue
				}
				mu.Lock()
				seen[n] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, workers*perWorker, "no hay números repetidos")
}

func TestMemorySequence_ContextoCancelado(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := billing.NewMemorySequence().Next(ctx, 55, "1")
	assert.ErrorIs(t, err, context.Canceled)
}
