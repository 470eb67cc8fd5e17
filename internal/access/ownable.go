package access

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	dErrors "seal/pkg/domain-errors"
	"seal/pkg/requestcontext"
)

// Ownable guards operations reserved to a single owner account.
type Ownable struct {
	mu    sync.RWMutex
	owner common.Address
}

func NewOwnable(owner common.Address) (*Ownable, error) {
	if owner == (common.Address{}) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "ZERO_ADDRESS")
	}
	return &Ownable{owner: owner}, nil
}

func (o *Ownable) Owner() common.Address {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.owner
}

// RequireOwner fails with UNAUTHORIZED unless the caller is the owner.
func (o *Ownable) RequireOwner(ctx context.Context) error {
	if requestcontext.Caller(ctx) != o.Owner() {
		return dErrors.New(dErrors.CodeForbidden, "UNAUTHORIZED")
	}
	return nil
}

// TransferOwnership hands ownership to newOwner in one step.
func (o *Ownable) TransferOwnership(ctx context.Context, newOwner common.Address) error {
	if newOwner == (common.Address{}) {
		return dErrors.New(dErrors.CodeInvalidInput, "ZERO_ADDRESS")
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if requestcontext.Caller(ctx) != o.owner {
		return dErrors.New(dErrors.CodeForbidden, "UNAUTHORIZED")
	}
	o.owner = newOwner
	return nil
}
