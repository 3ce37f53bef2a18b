package jwttoken

import (
	"confide/internal/platform/middleware"
)

// MiddlewareAdapter adapts JWTService to the middleware.JWTValidator
// interface so the transport layer doesn't depend on jwt internals.
type MiddlewareAdapter struct {
	svc *JWTService
}

func NewMiddlewareAdapter(svc *JWTService) *MiddlewareAdapter {
	return &MiddlewareAdapter{svc: svc}
}

func (a *MiddlewareAdapter) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.svc.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.JWTClaims{
		AdminID: claims.AdminID,
		Email:   claims.Email,
	}, nil
}
