// server/internal/auth/auth.go
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"quickmeds-api-server/internal/models"
)

// JWTClaims defines the payload for the JWT.
type JWTClaims struct {
	UserID string      `json:"userID"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	// ActorID là partnerID/pharmacyID tương ứng với vai trò, rỗng với user thường.
	ActorID string `json:"actorID,omitempty"`
	jwt.RegisteredClaims
}

// Hashing
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Service ký và phát hành JWT với secret lấy từ config.
type Service struct {
	Secret     []byte
	Expiration time.Duration
}

func NewService(secret string, expiration time.Duration) *Service {
	if expiration <= 0 {
		expiration = 24 * time.Hour
	}
	return &Service{Secret: []byte(secret), Expiration: expiration}
}

// GenerateJWT phát hành token cho một tài khoản.
func (s *Service) GenerateJWT(userID, email string, role models.Role, actorID string) (string, error) {
	claims := &JWTClaims{
		UserID:  userID,
		Email:   email,
		Role:    role,
		ActorID: actorID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.Expiration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.Secret)
}

// Parse xác thực chữ ký và trả về claims.
func (s *Service) Parse(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return claims, nil
}
