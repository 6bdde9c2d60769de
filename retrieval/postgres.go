package retrieval

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PostgresIndex stores segment vectors in a pgvector-backed table. The table
// is rebuilt from the corpus on every startup so it always mirrors the
// document directory.
type PostgresIndex struct {
	pool  *pgxpool.Pool
	count atomic.Int64
}

func NewPostgresIndex(ctx context.Context, dsn string, dimension int) (*PostgresIndex, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}

	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS doc_segments (
			id UUID PRIMARY KEY,
			source TEXT NOT NULL,
			seg_index INT NOT NULL,
			content TEXT NOT NULL,
			embedding VECTOR(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, dimension),
		"CREATE INDEX IF NOT EXISTS idx_doc_segments_embedding ON doc_segments USING ivfflat (embedding vector_l2_ops)",
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("execute schema statement: %w", err)
		}
	}

	return &PostgresIndex{pool: pool}, nil
}

func (i *PostgresIndex) Add(ctx context.Context, segments []Segment, vectors [][]float32) (err error) {
	if len(segments) != len(vectors) {
		return fmt.Errorf("segment/vector count mismatch: %d vs %d", len(segments), len(vectors))
	}

	tx, err := i.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, "TRUNCATE doc_segments"); err != nil {
		return fmt.Errorf("truncate doc_segments: %w", err)
	}

	for idx, segment := range segments {
		id := segment.ID
		if id == "" {
			id = uuid.New().String()
		}
		if _, err = tx.Exec(ctx, `
			INSERT INTO doc_segments (id, source, seg_index, content, embedding)
			VALUES ($1, $2, $3, $4, $5)
		`, id, segment.Source, segment.Index, segment.Content, pgvector.NewVector(vectors[idx])); err != nil {
			return fmt.Errorf("insert segment %d: %w", idx, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	i.count.Store(int64(len(segments)))
	return nil
}

func (i *PostgresIndex) Search(ctx context.Context, vector []float32, k int) ([]Segment, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("embedding is empty")
	}
	if k <= 0 {
		k = defaultTopK
	}

	conn, err := i.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	probes := k * 10
	if probes < 10 {
		probes = 10
	}
	if _, err := conn.Exec(ctx, fmt.Sprintf("SET ivfflat.probes = %d", probes)); err != nil {
		return nil, fmt.Errorf("set ivfflat probes: %w", err)
	}

	rows, err := conn.Query(ctx, `
		SELECT id, source, seg_index, content,
		       (embedding <-> $1::vector) AS distance
		FROM doc_segments
		ORDER BY embedding <-> $1::vector
		LIMIT $2
	`, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("query similar segments: %w", err)
	}
	defer rows.Close()

	results := make([]Segment, 0, k)
	for rows.Next() {
		var segment Segment
		var distance float64
		if scanErr := rows.Scan(&segment.ID, &segment.Source, &segment.Index, &segment.Content, &distance); scanErr != nil {
			return nil, fmt.Errorf("scan similar segment: %w", scanErr)
		}
		segment.Score = 1 / (1 + distance)
		results = append(results, segment)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return results, nil
}

func (i *PostgresIndex) Count() int {
	return int(i.count.Load())
}

func (i *PostgresIndex) Close() {
	i.pool.Close()
}

var _ Index = (*PostgresIndex)(nil)
