package main

import (
	"database/sql"

	"github.com/ethereum/go-ethereum/common"

	attservice "seal/internal/attestation/service"
	attmemory "seal/internal/attestation/store/memory"
	attpostgres "seal/internal/attestation/store/postgres"
	certifyservice "seal/internal/certify/service"
	certifymemory "seal/internal/certify/store/memory"
	certifypostgres "seal/internal/certify/store/postgres"
	"seal/internal/events"
	eventsmemory "seal/internal/events/store/memory"
	eventspostgres "seal/internal/events/store/postgres"
	regservice "seal/internal/registry/service"
	regmemory "seal/internal/registry/store/memory"
	regpostgres "seal/internal/registry/store/postgres"
	sealmodels "seal/internal/seal/models"
	sealservice "seal/internal/seal/service"
	sealmemory "seal/internal/seal/store/memory"
	sealpostgres "seal/internal/seal/store/postgres"
	"seal/internal/strategy"
	strategymemory "seal/internal/strategy/store/memory"
	strategypostgres "seal/internal/strategy/store/postgres"
	"seal/pkg/platform/tx"
)

// stores is every persistence port, all sharing one transaction runner.
type stores struct {
	runner       tx.TxRunner
	outbox       events.Store
	attestations attservice.Store
	profiles     regservice.ProfileStore
	accounts     regservice.AccountStore
	registry     regservice.SettingsStore
	templates    strategy.TemplateStore
	courses      certifyservice.CourseStore
	activities   sealservice.ActivityStore
	seal         sealservice.SettingsStore
}

func memoryStores(provider common.Address, sealSettings sealmodels.Settings) *stores {
	return &stores{
		runner:       tx.NewMemoryRunner(),
		outbox:       eventsmemory.New(),
		attestations: attmemory.New(),
		profiles:     regmemory.NewProfileStore(),
		accounts:     regmemory.NewAccountStore(),
		registry:     regmemory.NewSettingsStore(provider),
		templates:    strategymemory.NewTemplateStore(),
		courses:      certifymemory.NewCourseStore(),
		activities:   sealmemory.NewActivityStore(),
		seal:         sealmemory.NewSettingsStore(sealSettings),
	}
}

func postgresStores(db *sql.DB, provider common.Address, sealSettings sealmodels.Settings) *stores {
	return &stores{
		runner:       tx.NewRunner(db),
		outbox:       eventspostgres.New(db),
		attestations: attpostgres.New(db),
		profiles:     regpostgres.NewProfileStore(db),
		accounts:     regpostgres.NewAccountStore(db),
		registry:     regpostgres.NewSettingsStore(db, provider),
		templates:    strategypostgres.NewTemplateStore(db),
		courses:      certifypostgres.NewCourseStore(db),
		activities:   sealpostgres.NewActivityStore(db),
		seal:         sealpostgres.NewSettingsStore(db, sealSettings),
	}
}
