package models

import "github.com/golang-jwt/jwt/v5"

// MerchantClaims are the JWT claims issued by the dashboard's auth layer.
// This service only reads them; issuing sessions happens upstream.
type MerchantClaims struct {
	jwt.RegisteredClaims
	MerchantID uint   `json:"merchant_id"`
	Email      string `json:"email"`
}
