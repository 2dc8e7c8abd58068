package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/nfe-api/internal/application/billing"
	domnfe "github.com/jhoicas/nfe-api/internal/domain/nfe"
)

var _ billing.SequenceProvider = (*SequenceRepo)(nil)

// Schema tabla de numeración por modelo y série. La série se guarda como número,
// así "1" y "001" son la misma fila. EnsureSchema la aplica.
const Schema = `
CREATE TABLE IF NOT EXISTS nfe_sequences (
	model       SMALLINT    NOT NULL,
	series      SMALLINT    NOT NULL CHECK (series BETWEEN 0 AND 999),
	last_number BIGINT      NOT NULL CHECK (last_number BETWEEN 0 AND 999999999),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (model, series)
)`

// ErrSequenceExhausted la série llegó a 999999999.
var ErrSequenceExhausted = errors.New("nfe: secuencia agotada")

// SequenceRepo numeración nNF persistida en PostgreSQL. El incremento es atómico
// (INSERT ... ON CONFLICT DO UPDATE), así varias instancias de la API comparten la série.
type SequenceRepo struct {
	q Querier
}

// NewSequenceRepository construye el adaptador. Pasar pool o tx.
func NewSequenceRepository(q Querier) *SequenceRepo {
	return &SequenceRepo{q: q}
}

// EnsureSchema crea la tabla si no existe.
func (r *SequenceRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("crear nfe_sequences: %w", err)
	}
	return nil
}

// Next reserva el siguiente número de la série. El WHERE deja la fila intacta cuando
// ya está en el máximo, y entonces no vuelve ninguna fila.
func (r *SequenceRepo) Next(ctx context.Context, model int, series string) (int64, error) {
	const q = `
		INSERT INTO nfe_sequences (model, series, last_number, updated_at)
		VALUES ($1, $2, 1, now())
		ON CONFLICT (model, series) DO UPDATE
		SET last_number = nfe_sequences.last_number + 1, updated_at = now()
		WHERE nfe_sequences.last_number < 999999999
		RETURNING last_number`
	sn, err := domnfe.ParseSeries(series)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := r.q.QueryRow(ctx, q, model, sn).Scan(&n); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: %d/%s", ErrSequenceExhausted, model, series)
		}
		return 0, fmt.Errorf("siguiente número %d/%s: %w", model, series, err)
	}
	return n, nil
}

// Seed fija el último número emitido; nunca retrocede una série existente.
func (r *SequenceRepo) Seed(ctx context.Context, model int, series string, last int64) error {
	if last < 0 || last > 999999999 {
		return fmt.Errorf("seed %d/%s: número %d fuera de rango", model, series, last)
	}
	sn, err := domnfe.ParseSeries(series)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO nfe_sequences (model, series, last_number, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (model, series) DO UPDATE
		SET last_number = GREATEST(nfe_sequences.last_number, EXCLUDED.last_number), updated_at = now()`
	if _, err := r.q.Exec(ctx, q, model, sn, last); err != nil {
		return fmt.Errorf("seed %d/%s: %w", model, series, err)
	}
	return nil
}
