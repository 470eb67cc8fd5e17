package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lib/pq"

	"seal/internal/platform/postgres"
	"seal/internal/registry/models"
	"seal/pkg/domain"
	"seal/pkg/platform/sentinel"
	"seal/pkg/platform/tx"
)

const profileColumns = `id, attestation_id, nonce, name, metadata_protocol, metadata_pointer,
	owner, pending_owner, anchor, members, credits, created_at, updated_at`

// ProfileStore persists profiles in registry_profiles.
type ProfileStore struct {
	db *sql.DB
}

func NewProfileStore(db *sql.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

func (s *ProfileStore) Create(ctx context.Context, p *models.Profile) error {
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO registry_profiles (`+profileColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, profileArgs(p)...)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("profile %s: %w", p.ID, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

func (s *ProfileStore) FindByID(ctx context.Context, id domain.ProfileID) (*models.Profile, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM registry_profiles WHERE id = $1`, id.String())
	return scanProfile(row)
}

func (s *ProfileStore) FindByAnchor(ctx context.Context, anchor common.Address) (*models.Profile, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM registry_profiles WHERE anchor = $1`, anchor.Hex())
	return scanProfile(row)
}

func (s *ProfileStore) ListByAccount(ctx context.Context, account common.Address) ([]*models.Profile, error) {
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, `
		SELECT `+profileColumns+` FROM registry_profiles
		WHERE owner = $1 OR $1 = ANY(members)
		ORDER BY created_at, id
	`, account.Hex())
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return out, nil
}

// Execute locks the row with SELECT ... FOR UPDATE for the duration of the
// surrounding transaction.
func (s *ProfileStore) Execute(ctx context.Context, id domain.ProfileID, validate func(*models.Profile) error, mutate func(*models.Profile)) (*models.Profile, error) {
	exec := tx.Exec(ctx, s.db)
	row := exec.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM registry_profiles WHERE id = $1 FOR UPDATE`, id.String())
	p, err := scanProfile(row)
	if err != nil {
		return nil, err
	}
	if validate != nil {
		if err := validate(p); err != nil {
			return nil, err
		}
	}
	mutate(p)
	_, err = exec.ExecContext(ctx, `
		UPDATE registry_profiles SET
			name = $2, metadata_protocol = $3, metadata_pointer = $4, owner = $5,
			pending_owner = $6, anchor = $7, members = $8, credits = $9, updated_at = $10
		WHERE id = $1
	`, id.String(), p.Name, int64(p.Metadata.Protocol), p.Metadata.Pointer, p.Owner.Hex(),
		pendingOwner(p.PendingOwner), p.Anchor.Hex(), postgres.AddressArray(p.Members), int64(p.Credits), p.UpdatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, fmt.Errorf("anchor %s: %w", p.Anchor.Hex(), sentinel.ErrAlreadyUsed)
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(row scanner) (*models.Profile, error) {
	var (
		p                            models.Profile
		id, owner, pending, anchor   string
		attestationID, nonce, credit int64
		protocol                     int64
		members                      pq.StringArray
	)
	err := row.Scan(&id, &attestationID, &nonce, &p.Name, &protocol, &p.Metadata.Pointer,
		&owner, &pending, &anchor, &members, &credit, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	p.ID = domain.ProfileID(common.HexToHash(id))
	p.AttestationID = domain.AttestationID(attestationID)
	p.Nonce = uint64(nonce)
	p.Metadata.Protocol = uint64(protocol)
	p.Owner = common.HexToAddress(owner)
	if pending != "" {
		p.PendingOwner = common.HexToAddress(pending)
	}
	p.Anchor = common.HexToAddress(anchor)
	p.Members = postgres.Addresses(members)
	p.Credits = uint64(credit)
	return &p, nil
}

func profileArgs(p *models.Profile) []any {
	return []any{
		p.ID.String(), int64(p.AttestationID), int64(p.Nonce), p.Name,
		int64(p.Metadata.Protocol), p.Metadata.Pointer, p.Owner.Hex(),
		pendingOwner(p.PendingOwner), p.Anchor.Hex(), postgres.AddressArray(p.Members),
		int64(p.Credits), p.CreatedAt, p.UpdatedAt,
	}
}

func pendingOwner(a common.Address) string {
	if a == (common.Address{}) {
		return ""
	}
	return a.Hex()
}
