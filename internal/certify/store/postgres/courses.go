package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lib/pq"

	"seal/internal/certify/models"
	"seal/internal/platform/postgres"
	"seal/pkg/domain"
	"seal/pkg/platform/sentinel"
	"seal/pkg/platform/tx"
)

const (
	courseSequence = "certify_courses"
	courseColumns  = `id, profile_id, attestation_id, template, address, admin, managers, metadata, minted, created_at`
)

// CourseStore persists courses in certify_courses and their tokens in
// certify_certificates.
type CourseStore struct {
	db *sql.DB
}

func NewCourseStore(db *sql.DB) *CourseStore {
	return &CourseStore{db: db}
}

func (s *CourseStore) NextID(ctx context.Context) (domain.CourseID, error) {
	id, err := postgres.NextSequence(ctx, tx.Exec(ctx, s.db), courseSequence)
	return domain.CourseID(id), err
}

func (s *CourseStore) Create(ctx context.Context, c *models.Course) error {
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO certify_courses (`+courseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, int64(c.ID), c.ProfileID.String(), int64(c.AttestationID), c.Template.Hex(), c.Address.Hex(),
		c.Admin.Hex(), postgres.AddressArray(c.Managers), pq.Array(nonNil(c.Metadata)), int64(c.Minted), c.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("course %d: %w", c.ID, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("insert course: %w", err)
	}
	return nil
}

func (s *CourseStore) FindByID(ctx context.Context, id domain.CourseID) (*models.Course, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+courseColumns+` FROM certify_courses WHERE id = $1`, int64(id))
	return scanCourse(row)
}

func (s *CourseStore) ListByProfile(ctx context.Context, profileID domain.ProfileID) ([]*models.Course, error) {
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx,
		`SELECT `+courseColumns+` FROM certify_courses WHERE profile_id = $1 ORDER BY id`, profileID.String())
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Course, 0)
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return out, nil
}

// Mint locks the course row so concurrent mints number tokens without gaps.
func (s *CourseStore) Mint(ctx context.Context, id domain.CourseID, recipients []common.Address, attestationID domain.AttestationID, now time.Time) ([]models.Certificate, error) {
	exec := tx.Exec(ctx, s.db)
	c, err := scanCourse(exec.QueryRowContext(ctx,
		`SELECT `+courseColumns+` FROM certify_courses WHERE id = $1 FOR UPDATE`, int64(id)))
	if err != nil {
		return nil, err
	}
	minted := c.NextCertificates(recipients, attestationID, now)
	for _, cert := range minted {
		if _, err := exec.ExecContext(ctx, `
			INSERT INTO certify_certificates (course_id, token_id, recipient, attestation_id, minted_at)
			VALUES ($1, $2, $3, $4, $5)
		`, int64(cert.CourseID), int64(cert.TokenID), cert.Recipient.Hex(), int64(cert.AttestationID), cert.MintedAt); err != nil {
			return nil, fmt.Errorf("insert certificate: %w", err)
		}
	}
	if _, err := exec.ExecContext(ctx,
		`UPDATE certify_courses SET minted = minted + $2 WHERE id = $1`, int64(id), len(minted)); err != nil {
		return nil, fmt.Errorf("update course supply: %w", err)
	}
	return minted, nil
}

func (s *CourseStore) ListCertificates(ctx context.Context, id domain.CourseID) ([]models.Certificate, error) {
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, `
		SELECT course_id, token_id, recipient, attestation_id, minted_at
		FROM certify_certificates WHERE course_id = $1 ORDER BY token_id
	`, int64(id))
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	defer rows.Close()

	out := make([]models.Certificate, 0)
	for rows.Next() {
		var (
			c                      models.Certificate
			courseID, token, attID int64
			recipient              string
		)
		if err := rows.Scan(&courseID, &token, &recipient, &attID, &c.MintedAt); err != nil {
			return nil, fmt.Errorf("scan certificate: %w", err)
		}
		c.CourseID = domain.CourseID(courseID)
		c.TokenID = domain.TokenID(token)
		c.Recipient = common.HexToAddress(recipient)
		c.AttestationID = domain.AttestationID(attID)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCourse(row scanner) (*models.Course, error) {
	var (
		c                                models.Course
		id, attestationID, minted        int64
		profileID, template, addr, admin string
		managers, metadata               pq.StringArray
	)
	err := row.Scan(&id, &profileID, &attestationID, &template, &addr, &admin, &managers, &metadata, &minted, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan course: %w", err)
	}
	c.ID = domain.CourseID(id)
	c.ProfileID = domain.ProfileID(common.HexToHash(profileID))
	c.AttestationID = domain.AttestationID(attestationID)
	c.Template = common.HexToAddress(template)
	c.Address = common.HexToAddress(addr)
	c.Admin = common.HexToAddress(admin)
	c.Managers = postgres.Addresses(managers)
	if len(metadata) > 0 {
		c.Metadata = []string(metadata)
	}
	c.Minted = uint64(minted)
	return &c, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
