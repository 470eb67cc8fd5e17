package jwttoken

import (
	authmw "seal/pkg/platform/middleware/auth"
)

// MiddlewareValidator exposes JWTService to the auth middleware, which only
// needs the caller address and token id.
type MiddlewareValidator struct {
	service *JWTService
}

func NewMiddlewareValidator(service *JWTService) *MiddlewareValidator {
	return &MiddlewareValidator{service: service}
}

func (v *MiddlewareValidator) ValidateToken(token string) (*authmw.JWTClaims, error) {
	claims, err := v.service.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	return &authmw.JWTClaims{Caller: claims.Caller(), JTI: claims.ID}, nil
}
