package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/restock-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	CustomerID uuid.UUID
	StoreID    *uuid.UUID
	Role       enums.CustomerRole
	JTI        string
}

// AccessTokenClaims represents the typed JWT accepted by the API.
type AccessTokenClaims struct {
	CustomerID uuid.UUID          `json:"customer_id"`
	StoreID    *uuid.UUID         `json:"store_id,omitempty"`
	Role       enums.CustomerRole `json:"role"`
	jwt.RegisteredClaims
}
