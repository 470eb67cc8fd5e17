// Package access implements role-based and single-owner access control for
// the registry and the strategy hosts.
//
// Both types are in-memory; their initial state comes from configuration at
// startup and the acting account is read from requestcontext.Caller.
package access

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"seal/pkg/domain"
	dErrors "seal/pkg/domain-errors"
	"seal/pkg/platform/tx"
	"seal/pkg/requestcontext"
)

// DefaultAdminRole administers every role that has no explicit admin.
var DefaultAdminRole = domain.Role{}

// UnauthorizedAccountError reports that account lacks role.
type UnauthorizedAccountError struct {
	Account common.Address
	Role    domain.Role
}

func (e *UnauthorizedAccountError) Error() string {
	return fmt.Sprintf("AccessControlUnauthorizedAccount(%s, %s)", e.Account.Hex(), e.Role)
}

// Unauthorized builds the forbidden error returned when account lacks role.
func Unauthorized(account common.Address, role domain.Role) error {
	return dErrors.Wrap(&UnauthorizedAccountError{Account: account, Role: role}, dErrors.CodeForbidden, "UNAUTHORIZED")
}

type Roles struct {
	mu      sync.RWMutex
	members map[domain.Role]map[common.Address]struct{}
	admins  map[domain.Role]domain.Role
}

func NewRoles() *Roles {
	return &Roles{
		members: make(map[domain.Role]map[common.Address]struct{}),
		admins:  make(map[domain.Role]domain.Role),
	}
}

// Seed grants role to accounts without an authorization check. It is meant
// for bootstrapping from configuration.
func (r *Roles) Seed(role domain.Role, accounts ...common.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range accounts {
		if a == (common.Address{}) {
			continue
		}
		r.grant(role, a)
	}
}

// SetRoleAdmin makes admin the role allowed to grant and revoke role.
func (r *Roles) SetRoleAdmin(role, admin domain.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.admins[role] = admin
}

func (r *Roles) RoleAdmin(role domain.Role) domain.Role {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.roleAdmin(role)
}

func (r *Roles) HasRole(role domain.Role, account common.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.members[role][account]
	return ok
}

// RequireRole fails with UNAUTHORIZED unless the caller holds role.
func (r *Roles) RequireRole(ctx context.Context, role domain.Role) error {
	caller := requestcontext.Caller(ctx)
	if !r.HasRole(role, caller) {
		return Unauthorized(caller, role)
	}
	return nil
}

// GrantRole grants role to account. The caller must hold the role's admin.
// Granting a held role is a no-op. Inside a transaction the grant is undone
// on rollback.
func (r *Roles) GrantRole(ctx context.Context, role domain.Role, account common.Address) error {
	if account == (common.Address{}) {
		return dErrors.New(dErrors.CodeInvalidInput, "ZERO_ADDRESS")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireAdmin(ctx, role); err != nil {
		return err
	}
	if _, held := r.members[role][account]; held {
		return nil
	}
	r.grant(role, account)
	tx.Undo(ctx, func() { r.drop(role, account) })
	return nil
}

// RevokeRole removes role from account. The caller must hold the role's admin.
func (r *Roles) RevokeRole(ctx context.Context, role domain.Role, account common.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireAdmin(ctx, role); err != nil {
		return err
	}
	if _, held := r.members[role][account]; !held {
		return nil
	}
	delete(r.members[role], account)
	tx.Undo(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.grant(role, account)
	})
	return nil
}

// RenounceRole lets the caller drop a role it holds. account must be the caller.
func (r *Roles) RenounceRole(ctx context.Context, role domain.Role, account common.Address) error {
	if account != requestcontext.Caller(ctx) {
		return dErrors.New(dErrors.CodeForbidden, "AccessControlBadConfirmation")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, held := r.members[role][account]; !held {
		return nil
	}
	delete(r.members[role], account)
	tx.Undo(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.grant(role, account)
	})
	return nil
}

// Members lists the holders of role in address order.
func (r *Roles) Members(role domain.Role) []common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]common.Address, 0, len(r.members[role]))
	for a := range r.members[role] {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cmp(out[j]) < 0 })
	return out
}

func (r *Roles) requireAdmin(ctx context.Context, role domain.Role) error {
	caller := requestcontext.Caller(ctx)
	admin := r.roleAdmin(role)
	if _, ok := r.members[admin][caller]; !ok {
		return Unauthorized(caller, admin)
	}
	return nil
}

func (r *Roles) roleAdmin(role domain.Role) domain.Role {
	if admin, ok := r.admins[role]; ok {
		return admin
	}
	return DefaultAdminRole
}

func (r *Roles) drop(role domain.Role, account common.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members[role], account)
}

func (r *Roles) grant(role domain.Role, account common.Address) {
	set, ok := r.members[role]
	if !ok {
		set = make(map[common.Address]struct{})
		r.members[role] = set
	}
	set[account] = struct{}{}
}
