package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"seal/internal/registry/models"
	"seal/pkg/platform/tx"
)

// AccountStore persists the account ledger in registry_accounts.
type AccountStore struct {
	db *sql.DB
}

func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) Find(ctx context.Context, account common.Address) (*models.Account, error) {
	return s.find(ctx, tx.Exec(ctx, s.db), account, false)
}

// Execute inserts a zero row first so that FOR UPDATE always has a row to lock.
func (s *AccountStore) Execute(ctx context.Context, account common.Address, validate func(*models.Account) error, mutate func(*models.Account)) (*models.Account, error) {
	exec := tx.Exec(ctx, s.db)
	_, err := exec.ExecContext(ctx, `
		INSERT INTO registry_accounts (address, authorized, credits, updated_at)
		VALUES ($1, FALSE, 0, $2)
		ON CONFLICT (address) DO NOTHING
	`, account.Hex(), time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("ensure account: %w", err)
	}
	a, err := s.find(ctx, exec, account, true)
	if err != nil {
		return nil, err
	}
	if validate != nil {
		if err := validate(a); err != nil {
			return nil, err
		}
	}
	mutate(a)
	_, err = exec.ExecContext(ctx, `
		UPDATE registry_accounts SET authorized = $2, credits = $3, updated_at = $4
		WHERE address = $1
	`, account.Hex(), a.AuthorizedToCreateProfile, int64(a.Credits), a.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}
	return a, nil
}

func (s *AccountStore) find(ctx context.Context, exec tx.Executor, account common.Address, lock bool) (*models.Account, error) {
	query := `SELECT authorized, credits, updated_at FROM registry_accounts WHERE address = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	var (
		a       = models.Account{Address: account}
		credits int64
	)
	err := exec.QueryRowContext(ctx, query, account.Hex()).Scan(&a.AuthorizedToCreateProfile, &credits, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return &a, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select account: %w", err)
	}
	a.Credits = uint64(credits)
	return &a, nil
}
