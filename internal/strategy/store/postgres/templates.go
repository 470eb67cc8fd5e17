package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"seal/internal/platform/postgres"
	"seal/internal/strategy"
	"seal/pkg/platform/sentinel"
	"seal/pkg/platform/tx"
)

// TemplateStore persists templates in strategy_templates.
type TemplateStore struct {
	db *sql.DB
}

func NewTemplateStore(db *sql.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

func (s *TemplateStore) Add(ctx context.Context, t strategy.Template) error {
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO strategy_templates (address, kind, name, symbol, added_at)
		VALUES ($1, $2, $3, $4, $5)
	`, t.Address.Hex(), string(t.Kind), t.Name, t.Symbol, t.AddedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("template %s: %w", t.Address.Hex(), sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("insert template: %w", err)
	}
	return nil
}

func (s *TemplateStore) Remove(ctx context.Context, address common.Address) error {
	res, err := tx.Exec(ctx, s.db).ExecContext(ctx,
		`DELETE FROM strategy_templates WHERE address = $1`, address.Hex())
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *TemplateStore) Find(ctx context.Context, address common.Address) (*strategy.Template, error) {
	var (
		t    strategy.Template
		addr string
		kind string
	)
	err := tx.Exec(ctx, s.db).QueryRowContext(ctx, `
		SELECT address, kind, name, symbol, added_at FROM strategy_templates WHERE address = $1
	`, address.Hex()).Scan(&addr, &kind, &t.Name, &t.Symbol, &t.AddedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find template: %w", err)
	}
	t.Address = common.HexToAddress(addr)
	t.Kind = strategy.Kind(kind)
	return &t, nil
}

func (s *TemplateStore) List(ctx context.Context, kind strategy.Kind) ([]strategy.Template, error) {
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, `
		SELECT address, name, symbol, added_at FROM strategy_templates
		WHERE kind = $1 ORDER BY added_at, address
	`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	out := make([]strategy.Template, 0)
	for rows.Next() {
		var (
			t    strategy.Template
			addr string
		)
		if err := rows.Scan(&addr, &t.Name, &t.Symbol, &t.AddedAt); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		t.Address = common.HexToAddress(addr)
		t.Kind = kind
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return out, nil
}
