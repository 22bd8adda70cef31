package token

import (
	"wellfile/internal/platform/middleware"
)

// Validator adapts the token service to the middleware's JWTValidator
// interface.
type Validator struct {
	service *Service
}

// NewValidator wraps service for use by middleware.RequireAuth.
func NewValidator(service *Service) *Validator {
	return &Validator{service: service}
}

func (v *Validator) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := v.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.JWTClaims{
		OperatorID:   claims.Subject,
		OperatorName: claims.OperatorName,
	}, nil
}
