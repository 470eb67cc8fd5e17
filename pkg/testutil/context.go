package testutil

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"seal/pkg/requestcontext"
)

// WithCaller marks the request as sent by caller, as the auth middleware does.
func WithCaller(req *http.Request, caller common.Address) *http.Request {
	return req.WithContext(requestcontext.WithCaller(req.Context(), caller))
}
