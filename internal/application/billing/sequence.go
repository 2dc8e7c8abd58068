package billing

import (
	"context"
	"fmt"
	"sync"

	domnfe "github.com/jhoicas/nfe-api/internal/domain/nfe"
)

// maxNumber mayor nNF admitido por el leiaute (9 dígitos).
const maxNumber = 999_999_999

// MemorySequence numeración en memoria por modelo y série. Cada instancia es independiente.
// La série se normaliza a su valor numérico: "1" y "001" comparten contador.
type MemorySequence struct {
	mu   sync.Mutex
	last map[string]int64
}

// NewMemorySequence crea la secuencia vacía (el primer número es 1).
func NewMemorySequence() *MemorySequence {
	return &MemorySequence{last: make(map[string]int64)}
}

func sequenceKey(model int, series string) (string, error) {
	n, err := domnfe.ParseSeries(series)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d/%d", model, n), nil
}

// Seed fija el último número emitido (p. ej. leído de la base del ERP).
func (s *MemorySequence) Seed(model int, series string, last int64) error {
	k, err := sequenceKey(model, series)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last[k] = last
	return nil
}

// Next implementa SequenceProvider.
func (s *MemorySequence) Next(ctx context.Context, model int, series string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	k, err := sequenceKey(model, series)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last[k] >= maxNumber {
		return 0, fmt.Errorf("secuencia %s agotada", k)
	}
	s.last[k]++
	return s.last[k], nil
}
