package strategy

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"

	dErrors "seal/pkg/domain-errors"
	"seal/pkg/platform/sentinel"
	"seal/pkg/requestcontext"
)

// TemplateStore persists templates. Add returns sentinel.ErrAlreadyUsed for a
// known address; Remove and Find return sentinel.ErrNotFound for an unknown one.
type TemplateStore interface {
	Add(ctx context.Context, t Template) error
	Remove(ctx context.Context, address common.Address) error
	Find(ctx context.Context, address common.Address) (*Template, error)
	List(ctx context.Context, kind Kind) ([]Template, error)
}

// Catalog is the allowlist of templates of one kind that may be cloned.
type Catalog struct {
	kind  Kind
	store TemplateStore
}

func NewCatalog(kind Kind, store TemplateStore) *Catalog {
	return &Catalog{kind: kind, store: store}
}

func (c *Catalog) Kind() Kind { return c.kind }

func (c *Catalog) Add(ctx context.Context, t Template) (*Template, error) {
	if t.Kind == "" {
		t.Kind = c.kind
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if t.Kind != c.kind {
		return nil, dErrors.Newf(dErrors.CodeValidation, "template kind must be %s", c.kind)
	}
	t.AddedAt = requestcontext.Now(ctx)
	if err := c.store.Add(ctx, t); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "ALREADY_CLONEABLE")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to add template")
	}
	return &t, nil
}

func (c *Catalog) Remove(ctx context.Context, address common.Address) error {
	if address == (common.Address{}) {
		return dErrors.New(dErrors.CodeInvalidInput, "ZERO_ADDRESS")
	}
	if _, err := c.find(ctx, address); err != nil {
		return err
	}
	if err := c.store.Remove(ctx, address); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "NOT_CLONEABLE")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove template")
	}
	return nil
}

func (c *Catalog) IsCloneable(ctx context.Context, address common.Address) (bool, error) {
	if address == (common.Address{}) {
		return false, nil
	}
	_, err := c.find(ctx, address)
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (c *Catalog) List(ctx context.Context) ([]Template, error) {
	out, err := c.store.List(ctx, c.kind)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list templates")
	}
	return out, nil
}

// find treats templates of another kind as absent.
func (c *Catalog) find(ctx context.Context, address common.Address) (*Template, error) {
	t, err := c.store.Find(ctx, address)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.New(dErrors.CodeNotFound, "NOT_CLONEABLE")
	case err != nil:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load template")
	case t.Kind != c.kind:
		return nil, dErrors.New(dErrors.CodeNotFound, "NOT_CLONEABLE")
	}
	return t, nil
}
