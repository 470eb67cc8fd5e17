package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lib/pq"

	"seal/internal/attestation/models"
	"seal/internal/platform/postgres"
	"seal/pkg/domain"
	"seal/pkg/platform/sentinel"
	"seal/pkg/platform/tx"
)

const (
	schemaSequence      = "sp.schema"
	attestationSequence = "sp.attestation"
)

// Store persists schemas and attestations. Ids come from the sequences
// table, so a rolled back attestation leaves no gap.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) NextSchemaID(ctx context.Context) (domain.SchemaID, error) {
	v, err := postgres.NextSequence(ctx, tx.Exec(ctx, s.db), schemaSequence)
	return domain.SchemaID(v), err
}

func (s *Store) SaveSchema(ctx context.Context, schema *models.Schema) error {
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO sp_schemas (id, registrant, revocable, data_location, max_valid_for, hook, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, int64(schema.ID), schema.Registrant.Hex(), schema.Revocable, int16(schema.DataLocation),
		int64(schema.MaxValidFor), schema.Hook.Hex(), schema.Data, schema.Timestamp)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("schema %d: %w", schema.ID, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("insert schema: %w", err)
	}
	return nil
}

func (s *Store) GetSchema(ctx context.Context, id domain.SchemaID) (*models.Schema, error) {
	var (
		schema             models.Schema
		schemaID, maxValid int64
		location           int16
		registrant, hook   string
	)
	err := tx.Exec(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, registrant, revocable, data_location, max_valid_for, hook, data, created_at
		FROM sp_schemas WHERE id = $1
	`, int64(id)).Scan(&schemaID, &registrant, &schema.Revocable, &location, &maxValid, &hook, &schema.Data, &schema.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select schema: %w", err)
	}
	schema.ID = domain.SchemaID(schemaID)
	schema.Registrant = common.HexToAddress(registrant)
	schema.DataLocation = models.DataLocation(location)
	schema.MaxValidFor = uint64(maxValid)
	schema.Hook = common.HexToAddress(hook)
	return &schema, nil
}

func (s *Store) NextAttestationID(ctx context.Context) (domain.AttestationID, error) {
	v, err := postgres.NextSequence(ctx, tx.Exec(ctx, s.db), attestationSequence)
	return domain.AttestationID(v), err
}

func (s *Store) SaveAttestation(ctx context.Context, att *models.Attestation) error {
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO sp_attestations (
			id, schema_id, linked_attestation_id, attester, attest_timestamp,
			revoke_timestamp, valid_until, data_location, revoked, recipients, data
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, int64(att.ID), int64(att.SchemaID), int64(att.LinkedAttestationID), att.Attester.Hex(),
		att.AttestTimestamp, nullTime(att.RevokeTimestamp), nullTime(att.ValidUntil),
		int16(att.DataLocation), att.Revoked, pq.ByteaArray(att.Recipients), nonNilBytes(att.Data))
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("attestation %d: %w", att.ID, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("insert attestation: %w", err)
	}
	return nil
}

func (s *Store) GetAttestation(ctx context.Context, id domain.AttestationID) (*models.Attestation, error) {
	var (
		att                     models.Attestation
		attID, schemaID, linked int64
		attester                string
		revokedAt, validUntil   sql.NullTime
		location                int16
		recipients              pq.ByteaArray
	)
	err := tx.Exec(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, schema_id, linked_attestation_id, attester, attest_timestamp,
		       revoke_timestamp, valid_until, data_location, revoked, recipients, data
		FROM sp_attestations WHERE id = $1
	`, int64(id)).Scan(&attID, &schemaID, &linked, &attester, &att.AttestTimestamp,
		&revokedAt, &validUntil, &location, &att.Revoked, &recipients, &att.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select attestation: %w", err)
	}
	att.ID = domain.AttestationID(attID)
	att.SchemaID = domain.SchemaID(schemaID)
	att.LinkedAttestationID = domain.AttestationID(linked)
	att.Attester = common.HexToAddress(attester)
	att.RevokeTimestamp = revokedAt.Time
	att.ValidUntil = validUntil.Time
	att.DataLocation = models.DataLocation(location)
	att.Recipients = [][]byte(recipients)
	return &att, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func nonNilBytes(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
