package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/quaidirect/quaidirect-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	FishermanID uuid.UUID
	Plan        enums.Plan
	JTI         string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	FishermanID uuid.UUID  `json:"fisherman_id"`
	Plan        enums.Plan `json:"plan"`
	jwt.RegisteredClaims
}
