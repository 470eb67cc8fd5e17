// Package events records domain events in an outbox and relays them to Kafka.
//
// Services emit through Emitter. The Postgres store writes into the outbox
// table on the transaction carried by the context, so an event commits or
// rolls back together with the state change that produced it.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	// registry
	AccountAuthorizedToCreateProfile Type = "account_authorized_to_create_profile"
	CreditsAddedToAccount            Type = "credits_added_to_account"
	CreditsAddedToProfile            Type = "credits_added_to_profile"
	CreditsTransferredToProfile      Type = "credits_transferred_to_profile"
	ProfileCreditsConsumed           Type = "profile_credits_consumed"
	AttestationProviderUpdated       Type = "attestation_provider_updated"
	StrategyGranted                  Type = "strategy_granted"
	StrategyRevoked                  Type = "strategy_revoked"
	ProfileCreated                   Type = "profile_created"
	ProfileNameUpdated               Type = "profile_name_updated"
	ProfileMetadataUpdated           Type = "profile_metadata_updated"
	ProfileMembersAdded              Type = "profile_members_added"
	ProfileMembersRemoved            Type = "profile_members_removed"
	ProfilePendingOwnerUpdated       Type = "profile_pending_owner_updated"
	ProfileOwnerUpdated              Type = "profile_owner_updated"

	// attestation provider
	SchemaRegistered Type = "schema_registered"
	AttestationMade  Type = "attestation_made"

	// certify
	CloneableCourseAdded   Type = "cloneable_course_added"
	CloneableCourseRemoved Type = "cloneable_course_removed"
	CourseCreated          Type = "course_created"
	CertificateMinted      Type = "certificate_minted"

	// seal
	RegistryUpdated Type = "registry_updated"
	StrategyUpdated Type = "strategy_updated"
	ActivityCreated Type = "activity_created"
	SealMinted      Type = "seal_minted"
)

// Event is one entry of the outbox. Attributes carry the event arguments as
// strings (addresses and hashes in hex, numbers in decimal).
type Event struct {
	ID          uuid.UUID         `json:"id"`
	Seq         uint64            `json:"seq"`
	Type        Type              `json:"type"`
	Source      string            `json:"source"`
	Subject     string            `json:"subject"`
	Attributes  map[string]string `json:"attributes"`
	RequestID   string            `json:"request_id,omitempty"`
	OccurredAt  time.Time         `json:"occurred_at"`
	PublishedAt *time.Time        `json:"published_at,omitempty"`
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Type    Type
	Source  string
	Subject string
	Limit   int
}

func (f Filter) Matches(e Event) bool {
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	if f.Source != "" && e.Source != f.Source {
		return false
	}
	if f.Subject != "" && e.Subject != f.Subject {
		return false
	}
	return true
}

type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// Store persists outbox entries. List and ListUnpublished return events in
// append order.
type Store interface {
	Append(ctx context.Context, event Event) (Event, error)
	List(ctx context.Context, filter Filter) ([]Event, error)
	ListUnpublished(ctx context.Context, limit int) ([]Event, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// Nop discards events.
type Nop struct{}

func (Nop) Emit(context.Context, Event) error { return nil }
