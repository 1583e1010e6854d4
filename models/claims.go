package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims adalah payload token akses yang diterbitkan backend.
// Gateway hanya mendekode secara struktural (tanpa verifikasi tanda
// tangan); token diverifikasi oleh backend pada setiap panggilan API.
type Claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Known melaporkan apakah klaim berhasil didekode menjadi identitas
// yang berarti. Kegagalan dekode menghasilkan "pengguna tak dikenal",
// tidak pernah fatal.
func (c *Claims) Known() bool {
	return c != nil && (c.UserID != "" || c.Username != "" || c.Subject != "")
}

// DisplayName picks the best available label for the logged-in user.
func (c *Claims) DisplayName() string {
	switch {
	case c == nil:
		return ""
	case c.Username != "":
		return c.Username
	case c.Email != "":
		return c.Email
	default:
		return c.Subject
	}
}
