package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seal/internal/access"
	attmodels "seal/internal/attestation/models"
	"seal/internal/registry/models"
	"seal/internal/registry/service"
	"seal/internal/registry/store/memory"
	"seal/pkg/codec"
	"seal/pkg/domain"
	"seal/pkg/platform/tx"
	"seal/pkg/requestcontext"
	"seal/pkg/testutil"
)

var (
	owner    = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	provider = common.HexToAddress("0xe2C15B97F628B7Ad279D6b002cEDd414390b6D63")
	tono     = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	julio    = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
)

func newFixture(t *testing.T) (*service.Service, http.Handler) {
	t.Helper()
	roles := access.NewRoles()
	service.SeedRoles(roles, owner)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(memory.NewProfileStore(), memory.NewAccountStore(), memory.NewSettingsStore(provider),
		roles, tx.NewMemoryRunner(), service.WithLogger(logger))
	r := chi.NewRouter()
	New(svc, logger).Register(r)
	return svc, r
}

func createProfile(t *testing.T, svc *service.Service, nonce uint64, name string) domain.ProfileID {
	t.Helper()
	ctx := requestcontext.WithCaller(context.Background(), owner)
	require.NoError(t, svc.AuthorizeProfileCreation(ctx, tono, true))
	extra, err := codec.EncodeProfileCreation(codec.ProfileCreation{Nonce: nonce, Name: name, Members: []common.Address{julio}})
	require.NoError(t, err)
	att := attmodels.Attestation{ID: 1, SchemaID: 1, Attester: tono, AttestTimestamp: time.Now()}
	require.NoError(t, svc.DidReceiveAttestation(context.Background(), provider, att, extra))
	return domain.DeriveProfileID(nonce, tono)
}

func TestAdminEndpoints(t *testing.T) {
	_, router := newFixture(t)

	t.Run("multicall", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/registry/multicall", map[string]any{
			"calls": []map[string]any{
				{"method": "authorize_profile_creation", "account": tono.Hex(), "status": true},
				{"method": "add_credits_to_account", "account": tono.Hex(), "credits": 10},
			},
		})
		rr := testutil.DoRequest(router, testutil.WithCaller(req, owner))
		testutil.AssertStatus(t, rr, http.StatusNoContent)

		rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/registry/accounts/"+tono.Hex()))
		testutil.AssertStatusOK(t, rr)
		acc := testutil.UnmarshalResponse[models.Account](t, rr)
		assert.True(t, acc.AuthorizedToCreateProfile)
		assert.Equal(t, uint64(10), acc.Credits)
	})

	t.Run("same status maps to conflict", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPut, "/registry/accounts/"+tono.Hex()+"/authorization", map[string]any{"status": true})
		rr := testutil.DoRequest(router, testutil.WithCaller(req, owner))
		testutil.AssertStatusAndError(t, rr, http.StatusConflict, "conflict")
	})

	t.Run("non owner is forbidden", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/registry/accounts/"+julio.Hex()+"/credits", map[string]any{"credits": 1})
		rr := testutil.DoRequest(router, testutil.WithCaller(req, julio))
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
	})

	t.Run("zero credits", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/registry/accounts/"+julio.Hex()+"/credits", map[string]any{"credits": 0})
		rr := testutil.DoRequest(router, testutil.WithCaller(req, owner))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
	})

	t.Run("provider", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPut, "/registry/provider", map[string]any{"address": julio.Hex()})
		rr := testutil.DoRequest(router, testutil.WithCaller(req, owner))
		testutil.AssertStatus(t, rr, http.StatusNoContent)

		rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/registry/provider"))
		body := testutil.UnmarshalResponse[ProviderResponse](t, rr)
		assert.Equal(t, julio, body.Provider)
	})

	t.Run("bad address", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/registry/accounts/not-an-address"))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
	})

	t.Run("zero provider", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPut, "/registry/provider", map[string]any{"address": common.Address{}.Hex()})
		rr := testutil.DoRequest(router, testutil.WithCaller(req, owner))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
	})
}

func TestProfileEndpoints(t *testing.T) {
	svc, router := newFixture(t)
	id := createProfile(t, svc, 1, "educateth")
	base := "/registry/profiles/" + id.String()

	t.Run("get", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, base))
		testutil.AssertStatusOK(t, rr)
		p := testutil.UnmarshalResponse[models.Profile](t, rr)
		assert.Equal(t, id, p.ID)
		assert.Equal(t, tono, p.Owner)
	})

	t.Run("membership", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, base+"/membership?account="+julio.Hex()))
		body := testutil.UnmarshalResponse[MembershipResponse](t, rr)
		assert.False(t, body.IsOwner)
		assert.True(t, body.IsMember)
	})

	t.Run("rename by member", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPut, base+"/name", map[string]any{"name": " ETHKipu "})
		rr := testutil.DoRequest(router, testutil.WithCaller(req, julio))
		testutil.AssertStatusOK(t, rr)

		rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/registry/anchors/"+domain.DeriveAnchor(id, "ETHKipu").Hex()))
		testutil.AssertStatusOK(t, rr)
	})

	t.Run("members are owner only", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, base+"/members", map[string]any{"members": []string{owner.Hex()}})
		rr := testutil.DoRequest(router, testutil.WithCaller(req, julio))
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
	})

	t.Run("consume without strategy role", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, base+"/credits/consume", map[string]any{"credits": 1})
		rr := testutil.DoRequest(router, testutil.WithCaller(req, tono))
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
	})

	t.Run("list by account", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/registry/accounts/"+tono.Hex()+"/profiles"))
		body := testutil.UnmarshalResponse[struct {
			Profiles []models.Profile `json:"profiles"`
		}](t, rr)
		require.Len(t, body.Profiles, 1)
	})

	t.Run("unknown profile", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/registry/profiles/"+domain.DeriveProfileID(5, julio).String()))
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})
}
