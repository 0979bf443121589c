package sink

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5/pgxpool"

	"pumpwatch-sol/internal/logic/core"
)

const createTokenTable = `
CREATE TABLE IF NOT EXISTS token_creations (
	signature   TEXT        NOT NULL,
	kind        TEXT        NOT NULL,
	ix_index    INTEGER     NOT NULL,
	slot        BIGINT      NOT NULL,
	mint        TEXT        NOT NULL,
	roles       JSONB       NOT NULL,
	args        JSONB       NOT NULL,
	curve       JSONB,
	image       TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (signature, kind, ix_index)
);
CREATE INDEX IF NOT EXISTS token_creations_mint_idx ON token_creations (mint);
`

const insertToken = `
INSERT INTO token_creations (signature, kind, ix_index, slot, mint, roles, args, curve)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (signature, kind, ix_index) DO NOTHING
`

const updateImage = `UPDATE token_creations SET image = $1 WHERE signature = $2 AND kind = $3`

// PostgresSink 落库；同一笔交易同一条指令重复推送时忽略
type PostgresSink struct {
	pool *pgxpool.Pool
}

func NewPostgresSink(ctx context.Context, dsn string, maxConns int32) (*PostgresSink, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pg dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect pg: %w", err)
	}
	if _, err := pool.Exec(ctx, createTokenTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create token_creations: %w", err)
	}
	return &PostgresSink{pool: pool}, nil
}

func (s *PostgresSink) Name() string { return "postgres" }

func (s *PostgresSink) Accept(ctx context.Context, ev *core.DecodedEvent) error {
	row, err := tokenRow(ev)
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, insertToken, row...); err != nil {
		return fmt.Errorf("insert token_creations: %w", err)
	}
	return nil
}

func (s *PostgresSink) AcceptMetadata(ctx context.Context, m *core.TokenMetadata) error {
	if _, err := s.pool.Exec(ctx, updateImage, m.Image, m.Signature, m.Kind); err != nil {
		return fmt.Errorf("update token image: %w", err)
	}
	return nil
}

// tokenRow 按 insertToken 的列顺序组装参数
func tokenRow(ev *core.DecodedEvent) ([]any, error) {
	slot, err := strconv.ParseInt(ev.Slot, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid slot %q: %w", ev.Slot, err)
	}
	roles, err := sonic.Marshal(ev.Roles)
	if err != nil {
		return nil, err
	}
	args, err := sonic.Marshal(ev.Args)
	if err != nil {
		return nil, err
	}
	var curve []byte
	if ev.Curve != nil {
		if curve, err = sonic.Marshal(ev.Curve); err != nil {
			return nil, err
		}
	}
	return []any{ev.Signature, ev.Kind, ev.IxIndex, slot, ev.Mint(), string(roles), string(args), nullableJSON(curve)}, nil
}

func nullableJSON(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}

func (s *PostgresSink) Close() error {
	s.pool.Close()
	return nil
}
