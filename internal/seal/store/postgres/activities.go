package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lib/pq"

	"seal/internal/platform/postgres"
	"seal/internal/seal/models"
	"seal/pkg/domain"
	"seal/pkg/platform/sentinel"
	"seal/pkg/platform/tx"
)

const (
	activitySequence = "seal_activities"
	activityColumns  = `id, profile_id, attestation_id, address, admin, managers, credits, minted, created_at`
)

// ActivityStore persists activities in seal_activities and their tokens in
// seal_tokens.
type ActivityStore struct {
	db *sql.DB
}

func NewActivityStore(db *sql.DB) *ActivityStore {
	return &ActivityStore{db: db}
}

func (s *ActivityStore) NextID(ctx context.Context) (domain.ActivityID, error) {
	id, err := postgres.NextSequence(ctx, tx.Exec(ctx, s.db), activitySequence)
	return domain.ActivityID(id), err
}

func (s *ActivityStore) Create(ctx context.Context, a *models.Activity) error {
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO seal_activities (`+activityColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, int64(a.ID), a.ProfileID.String(), int64(a.AttestationID), a.Address.Hex(), a.Admin.Hex(),
		postgres.AddressArray(a.Managers), int64(a.Credits), int64(a.Minted), a.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("activity %d: %w", a.ID, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

func (s *ActivityStore) FindByID(ctx context.Context, id domain.ActivityID) (*models.Activity, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+activityColumns+` FROM seal_activities WHERE id = $1`, int64(id))
	return scanActivity(row)
}

func (s *ActivityStore) ListByProfile(ctx context.Context, profileID domain.ProfileID) ([]*models.Activity, error) {
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx,
		`SELECT `+activityColumns+` FROM seal_activities WHERE profile_id = $1 ORDER BY id`, profileID.String())
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Activity, 0)
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return out, nil
}

// Mint locks the activity row, runs validate, then spends one credit per
// recipient and inserts the numbered seals.
func (s *ActivityStore) Mint(ctx context.Context, id domain.ActivityID, validate func(*models.Activity) error, recipients []common.Address, attestationID domain.AttestationID, now time.Time) ([]models.Seal, error) {
	exec := tx.Exec(ctx, s.db)
	a, err := scanActivity(exec.QueryRowContext(ctx,
		`SELECT `+activityColumns+` FROM seal_activities WHERE id = $1 FOR UPDATE`, int64(id)))
	if err != nil {
		return nil, err
	}
	if validate != nil {
		if err := validate(a); err != nil {
			return nil, err
		}
	}
	minted := a.NextSeals(recipients, attestationID, now)
	for _, seal := range minted {
		if _, err := exec.ExecContext(ctx, `
			INSERT INTO seal_tokens (activity_id, token_id, recipient, attestation_id, minted_at)
			VALUES ($1, $2, $3, $4, $5)
		`, int64(seal.ActivityID), int64(seal.TokenID), seal.Recipient.Hex(), int64(seal.AttestationID), seal.MintedAt); err != nil {
			return nil, fmt.Errorf("insert seal: %w", err)
		}
	}
	if _, err := exec.ExecContext(ctx, `
		UPDATE seal_activities SET credits = credits - $2, minted = minted + $2 WHERE id = $1
	`, int64(id), len(minted)); err != nil {
		return nil, fmt.Errorf("update activity supply: %w", err)
	}
	return minted, nil
}

func (s *ActivityStore) ListSeals(ctx context.Context, id domain.ActivityID) ([]models.Seal, error) {
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, `
		SELECT activity_id, token_id, recipient, attestation_id, minted_at
		FROM seal_tokens WHERE activity_id = $1 ORDER BY token_id
	`, int64(id))
	if err != nil {
		return nil, fmt.Errorf("list seals: %w", err)
	}
	defer rows.Close()

	out := make([]models.Seal, 0)
	for rows.Next() {
		var (
			seal                     models.Seal
			activityID, token, attID int64
			recipient                string
		)
		if err := rows.Scan(&activityID, &token, &recipient, &attID, &seal.MintedAt); err != nil {
			return nil, fmt.Errorf("scan seal: %w", err)
		}
		seal.ActivityID = domain.ActivityID(activityID)
		seal.TokenID = domain.TokenID(token)
		seal.Recipient = common.HexToAddress(recipient)
		seal.AttestationID = domain.AttestationID(attID)
		out = append(out, seal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list seals: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanActivity(row scanner) (*models.Activity, error) {
	var (
		a                                  models.Activity
		id, attestationID, credits, minted int64
		profileID, addr, admin             string
		managers                           pq.StringArray
	)
	err := row.Scan(&id, &profileID, &attestationID, &addr, &admin, &managers, &credits, &minted, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan activity: %w", err)
	}
	a.ID = domain.ActivityID(id)
	a.ProfileID = domain.ProfileID(common.HexToHash(profileID))
	a.AttestationID = domain.AttestationID(attestationID)
	a.Address = common.HexToAddress(addr)
	a.Admin = common.HexToAddress(admin)
	a.Managers = postgres.Addresses(managers)
	a.Credits = uint64(credits)
	a.Minted = uint64(minted)
	return &a, nil
}
