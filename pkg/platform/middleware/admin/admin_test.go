package admin

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"seal/pkg/testutil"
)

func TestRequireAdminToken(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		hash   string
		token  string
		status int
	}{
		{"matching token", string(hash), "s3cret", http.StatusNoContent},
		{"wrong token", string(hash), "guess", http.StatusUnauthorized},
		{"missing token", string(hash), "", http.StatusUnauthorized},
		{"disabled when no hash is configured", "", "s3cret", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := RequireAdminToken(tt.hash, logger)(ok)
			req := httptest.NewRequest(http.MethodPost, "/admin/attestations", nil)
			if tt.token != "" {
				req.Header.Set(HeaderAdminToken, tt.token)
			}
			rr := testutil.DoRequest(h, req)
			assert.Equal(t, tt.status, rr.Code)
		})
	}
}
