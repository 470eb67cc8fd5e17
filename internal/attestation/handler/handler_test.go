package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seal/internal/attestation/models"
	"seal/pkg/domain"
	dErrors "seal/pkg/domain-errors"
	"seal/pkg/testutil"
)

var caller = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")

type stubProvider struct {
	schema    models.Schema
	att       models.Attestation
	extraData []byte
	err       error
}

func (p *stubProvider) RegisterSchema(_ context.Context, schema models.Schema) (domain.SchemaID, error) {
	p.schema = schema
	return 1, p.err
}

func (p *stubProvider) Attest(_ context.Context, att models.Attestation, extraData []byte) (domain.AttestationID, error) {
	p.att = att
	p.extraData = extraData
	return 3, p.err
}

func (p *stubProvider) GetSchema(_ context.Context, id domain.SchemaID) (*models.Schema, error) {
	if id != 1 {
		return nil, dErrors.New(dErrors.CodeNotFound, "schema not found")
	}
	return &models.Schema{ID: 1, Data: "profile"}, nil
}

func (p *stubProvider) GetAttestation(_ context.Context, id domain.AttestationID) (*models.Attestation, error) {
	if id != 3 {
		return nil, dErrors.New(dErrors.CodeNotFound, "attestation not found")
	}
	return &models.Attestation{ID: 3, SchemaID: 1, Attester: caller, Data: []byte{0xab}}, nil
}

type stubDispatcher struct {
	env       models.Envelope
	delivered bool
}

func (d *stubDispatcher) Dispatch(_ context.Context, env models.Envelope) (bool, error) {
	d.env = env
	return d.delivered, nil
}

func newRouter(p Provider, d Dispatcher) http.Handler {
	h := New(p, d, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.Register(r)
	h.RegisterAdmin(r)
	return r
}

func TestHandleRegisterSchema(t *testing.T) {
	t.Run("creates schema", func(t *testing.T) {
		p := &stubProvider{}
		req := testutil.NewJSONRequest(t, http.MethodPost, "/sp/schemas", map[string]any{
			"data_location": 0,
			"hook":          "0x5FbDB2315678afecb367f032d93F642f64180aa3",
			"data":          "  profile  ",
		})
		rr := testutil.DoRequest(newRouter(p, &stubDispatcher{}), testutil.WithCaller(req, caller))

		testutil.AssertStatus(t, rr, http.StatusCreated)
		assert.Equal(t, "profile", p.schema.Data)
		assert.Equal(t, common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"), p.schema.Hook)
		body := testutil.UnmarshalResponse[IDResponse](t, rr)
		assert.Equal(t, uint64(1), body.ID)
	})

	t.Run("requires a caller", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/sp/schemas", map[string]any{"data": "x"})
		rr := testutil.DoRequest(newRouter(&stubProvider{}, &stubDispatcher{}), req)
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	})

	t.Run("rejects bad data location", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/sp/schemas", map[string]any{"data_location": 9})
		rr := testutil.DoRequest(newRouter(&stubProvider{}, &stubDispatcher{}), testutil.WithCaller(req, caller))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
	})
}

func TestHandleAttest(t *testing.T) {
	t.Run("decodes hex fields", func(t *testing.T) {
		p := &stubProvider{}
		req := testutil.NewJSONRequest(t, http.MethodPost, "/sp/attestations", map[string]any{
			"attestation": map[string]any{
				"schema_id":     1,
				"attester":      caller.Hex(),
				"data_location": 0,
				"recipients":    []string{caller.Hex()},
				"data":          "0x0102",
			},
			"extra_data": "0xff",
		})
		rr := testutil.DoRequest(newRouter(p, &stubDispatcher{}), testutil.WithCaller(req, caller))

		testutil.AssertStatus(t, rr, http.StatusCreated)
		assert.Equal(t, domain.SchemaID(1), p.att.SchemaID)
		assert.Equal(t, []byte{0x01, 0x02}, p.att.Data)
		require.Len(t, p.att.Recipients, 1)
		assert.Equal(t, caller.Bytes(), p.att.Recipients[0])
		assert.Equal(t, []byte{0xff}, p.extraData)
	})

	t.Run("maps service errors", func(t *testing.T) {
		p := &stubProvider{err: dErrors.New(dErrors.CodeForbidden, "UNAUTHORIZED")}
		req := testutil.NewJSONRequest(t, http.MethodPost, "/sp/attestations", map[string]any{
			"attestation": map[string]any{"schema_id": 1},
		})
		rr := testutil.DoRequest(newRouter(p, &stubDispatcher{}), testutil.WithCaller(req, caller))
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
	})

	t.Run("requires schema id", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/sp/attestations", map[string]any{
			"attestation": map[string]any{"data": "0x"},
		})
		rr := testutil.DoRequest(newRouter(&stubProvider{}, &stubDispatcher{}), testutil.WithCaller(req, caller))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
	})
}

func TestHandleGet(t *testing.T) {
	router := newRouter(&stubProvider{}, &stubDispatcher{})

	t.Run("schema", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/sp/schemas/1"))
		testutil.AssertStatusOK(t, rr)
		body := testutil.UnmarshalResponse[models.Schema](t, rr)
		assert.Equal(t, "profile", body.Data)
	})

	t.Run("attestation", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/sp/attestations/3"))
		testutil.AssertStatusOK(t, rr)
		body := testutil.UnmarshalResponse[models.AttestationPayload](t, rr)
		assert.Equal(t, uint64(3), body.ID)
		assert.Equal(t, caller, body.Attester)
	})

	t.Run("missing", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/sp/attestations/4"))
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})

	t.Run("bad id", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/sp/schemas/abc"))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
	})
}

func TestHandleAdminDispatch(t *testing.T) {
	d := &stubDispatcher{delivered: true}
	req := testutil.NewJSONRequest(t, http.MethodPost, "/admin/attestations", map[string]any{
		"provider": "0xe2C15B97F628B7Ad279D6b002cEDd414390b6D63",
		"hook":     "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		"attestation": map[string]any{
			"id":            7,
			"schema_id":     1,
			"attester":      caller.Hex(),
			"data_location": 0,
		},
	})
	rr := testutil.DoRequest(newRouter(&stubProvider{}, d), req)

	testutil.AssertStatusOK(t, rr)
	assert.Equal(t, uint64(7), d.env.Attestation.ID)
	testutil.AssertJSONContains(t, rr, "delivered", true)
}
