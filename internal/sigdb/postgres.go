package sigdb

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createSignaturesTable = `
	CREATE TABLE IF NOT EXISTS signatures (
		kind      TEXT NOT NULL,
		hash      TEXT NOT NULL,
		signature TEXT NOT NULL,
		PRIMARY KEY (kind, hash, signature)
	)`

// Postgres is a signature dataset stored in a Postgres table.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// EnsureSchema creates the signatures table when missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, createSignaturesTable); err != nil {
		return fmt.Errorf("create signatures table: %w", err)
	}
	return nil
}

func (p *Postgres) LookupSelector(ctx context.Context, selector [4]byte) ([]string, error) {
	return p.lookup(ctx, KindFunction, hexutil.Encode(selector[:]))
}

func (p *Postgres) LookupEvent(ctx context.Context, topic common.Hash) ([]string, error) {
	return p.lookup(ctx, KindEvent, topic.Hex())
}

func (p *Postgres) lookup(ctx context.Context, kind Kind, hash string) ([]string, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT signature FROM signatures WHERE kind = $1 AND hash = $2 ORDER BY signature`,
		string(kind), hash,
	)
	if err != nil {
		return nil, fmt.Errorf("query signatures: %w", err)
	}
	sigs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan signatures: %w", err)
	}
	return uniqueSorted(sigs), nil
}

// Import inserts entries, skipping ones already present.
func (p *Postgres) Import(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(`
			INSERT INTO signatures (kind, hash, signature)
			VALUES ($1, $2, $3)
			ON CONFLICT (kind, hash, signature) DO NOTHING
		`, string(e.Kind), e.Hash, e.Signature)
	}

	br := p.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range entries {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert signature: %w", err)
		}
	}
	return nil
}
