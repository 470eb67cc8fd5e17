package handler

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"seal/internal/strategy"
	dErrors "seal/pkg/domain-errors"
)

type TemplateRequest struct {
	Address common.Address `json:"address"`
	Name    string         `json:"name"`
	Symbol  string         `json:"symbol"`
}

func (r *TemplateRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Symbol = strings.TrimSpace(r.Symbol)
}

func (r *TemplateRequest) Validate() error {
	if r.Address == (common.Address{}) {
		return dErrors.New(dErrors.CodeInvalidInput, "ZERO_ADDRESS")
	}
	return nil
}

func (r *TemplateRequest) ToTemplate() strategy.Template {
	return strategy.Template{
		Address: r.Address,
		Kind:    strategy.KindCourse,
		Name:    r.Name,
		Symbol:  r.Symbol,
	}
}

type HostResponse struct {
	Address common.Address `json:"address"`
	Owner   common.Address `json:"owner"`
}
