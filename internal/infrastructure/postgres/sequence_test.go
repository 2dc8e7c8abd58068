package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/nfe-api/internal/infrastructure/postgres"
	"github.com/jhoicas/nfe-api/pkg/config"
)

type fakeRow struct {
	n   int64
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*int64)) = r.n
	return nil
}

// fakeQuerier registra la última consulta y simula la tabla en memoria.
type fakeQuerier struct {
	last    map[string]int64
	sql     string
	args    []any
	execErr error
}

func newFake() *fakeQuerier { return &fakeQuerier{last: map[string]int64{}} }

func key(args []any) string {
	return fmt.Sprintf("%v/%v", args[0], args[1])
}

func (f *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.sql, f.args = sql, args
	if f.execErr != nil {
		return pgconn.CommandTag{}, f.execErr
	}
	if len(args) == 3 {
		k := key(args)
		if n := args[2].(int64); n > f.last[k] {
			f.last[k] = n
		}
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.sql, f.args = sql, args
	k := key(args)
	if f.last[k] >= 999999999 {
		return fakeRow{err: pgx.ErrNoRows}
	}
	f.last[k]++
	return fakeRow{n: f.last[k]}
}

func TestSequence_Next(t *testing.T) {
	q := newFake()
	repo := postgres.NewSequenceRepository(q)
	ctx := context.Background()

	n, err := repo.Next(ctx, 55, "1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = repo.Next(ctx, 55, "1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Contains(t, q.sql, "ON CONFLICT (model, series)")
	assert.Equal(t, []any{55, 1}, q.args, "la série viaja como número")

	n, err = repo.Next(ctx, 65, "1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "cada modelo tiene su propia série")
}

func TestSequence_SerieNormalizada(t *testing.T) {
	repo := postgres.NewSequenceRepository(newFake())
	ctx := context.Background()

	n, err := repo.Next(ctx, 55, "1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = repo.Next(ctx, 55, "001")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = repo.Next(ctx, 55, "1000")
	assert.Error(t, err)
}

func TestSequence_SeedYAgotada(t *testing.T) {
	q := newFake()
	repo := postgres.NewSequenceRepository(q)
	ctx := context.Background()

	require.NoError(t, repo.Seed(ctx, 55, "1", 999999998))
	require.NoError(t, repo.Seed(ctx, 55, "1", 10), "seed no retrocede")
	n, err := repo.Next(ctx, 55, "1")
	require.NoError(t, err)
	assert.Equal(t, int64(999999999), n)

	_, err = repo.Next(ctx, 55, "1")
	assert.ErrorIs(t, err, postgres.ErrSequenceExhausted)
}

func TestSequence_SeedFueraDeRango(t *testing.T) {
	repo := postgres.NewSequenceRepository(newFake())
	assert.Error(t, repo.Seed(context.Background(), 55, "1", 1_000_000_000))
	assert.Error(t, repo.Seed(context.Background(), 55, "1", -1))
}

func TestSequence_ErrorDeBase(t *testing.T) {
	q := newFake()
	q.execErr = errors.New("conexión cerrada")
	repo := postgres.NewSequenceRepository(q)
	err := repo.EnsureSchema(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nfe_sequences")
}

// Contra una base real: NFE_TEST_DATABASE_URL=postgres://... go test ./internal/infrastructure/postgres/
func TestSequence_Postgres(t *testing.T) {
	url := os.Getenv("NFE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("NFE_TEST_DATABASE_URL no configurado")
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: url})
	require.NoError(t, err)
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(ctx) }()

	repo := postgres.NewSequenceRepository(tx)
	require.NoError(t, repo.EnsureSchema(ctx))
	require.NoError(t, repo.Seed(ctx, 55, "900", 41))
	n, err := repo.Next(ctx, 55, "900")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
}
