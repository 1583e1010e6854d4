package services

import (
	"github.com/golang-jwt/jwt/v5"

	"gateway-go/models"
)

// DecodeClaims mendekode payload token akses secara struktural, tanpa
// verifikasi tanda tangan. Token diterbitkan dan diverifikasi oleh
// backend; gateway hanya butuh klaim untuk tampilan. Kegagalan dekode
// menghasilkan klaim kosong ("pengguna tak dikenal"), tidak pernah error.
func DecodeClaims(tokenString string) *models.Claims {
	claims := &models.Claims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return &models.Claims{}
	}
	return claims
}
