package memory

import (
	"context"
	"fmt"
	"sync"

	"seal/internal/attestation/models"
	"seal/pkg/domain"
	"seal/pkg/platform/sentinel"
	"seal/pkg/platform/tx"
)

// InMemoryStore keeps schemas and attestations in dense slices indexed by
// id-1, so ids stay sequential without gaps.
type InMemoryStore struct {
	mu           sync.RWMutex
	schemas      []models.Schema
	attestations []models.Attestation
}

func New() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) NextSchemaID(_ context.Context) (domain.SchemaID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.SchemaID(len(s.schemas) + 1), nil
}

func (s *InMemoryStore) SaveSchema(ctx context.Context, schema *models.Schema) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if uint64(schema.ID) != uint64(len(s.schemas))+1 {
		return fmt.Errorf("schema %d: %w", schema.ID, sentinel.ErrAlreadyUsed)
	}
	s.schemas = append(s.schemas, *schema)
	tx.Undo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.schemas = s.schemas[:len(s.schemas)-1]
	})
	return nil
}

func (s *InMemoryStore) GetSchema(_ context.Context, id domain.SchemaID) (*models.Schema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id == 0 || uint64(id) > uint64(len(s.schemas)) {
		return nil, sentinel.ErrNotFound
	}
	schema := s.schemas[id-1]
	return &schema, nil
}

func (s *InMemoryStore) NextAttestationID(_ context.Context) (domain.AttestationID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.AttestationID(len(s.attestations) + 1), nil
}

func (s *InMemoryStore) SaveAttestation(ctx context.Context, att *models.Attestation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if uint64(att.ID) != uint64(len(s.attestations))+1 {
		return fmt.Errorf("attestation %d: %w", att.ID, sentinel.ErrAlreadyUsed)
	}
	s.attestations = append(s.attestations, *att)
	tx.Undo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.attestations = s.attestations[:len(s.attestations)-1]
	})
	return nil
}

func (s *InMemoryStore) GetAttestation(_ context.Context, id domain.AttestationID) (*models.Attestation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id == 0 || uint64(id) > uint64(len(s.attestations)) {
		return nil, sentinel.ErrNotFound
	}
	att := s.attestations[id-1]
	return &att, nil
}
