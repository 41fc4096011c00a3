// Package auth provides password hashing and JWT session tokens.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/harshal20m/storeratings/pkg/ratings"
)

// bcryptCost is the work factor applied to every stored password digest.
const bcryptCost = 10

// PasswordHasher handles password hashing and verification
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a new password hasher
func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{
		cost: bcryptCost,
	}
}

// Hash hashes a password using bcrypt
func (ph *PasswordHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), ph.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hash), nil
}

// Verify verifies a password against its stored hash
func (ph *PasswordHasher) Verify(password, hash string) error {
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}
	if hash == "" {
		return fmt.Errorf("hash cannot be empty")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return fmt.Errorf("password verification failed: %w", err)
	}

	return nil
}

// JWTManager handles JWT token generation and validation
type JWTManager struct {
	secret    []byte
	algorithm string
	expiresIn time.Duration
	issuer    string
}

// Claims represents the identity carried by a session token.
type Claims struct {
	UserID int64        `json:"id"`
	Email  string       `json:"email"`
	Role   ratings.Role `json:"role"`
	jwt.RegisteredClaims
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(secret, algorithm string, expiresIn time.Duration, issuer string) (*JWTManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret cannot be empty")
	}
	switch algorithm {
	case "":
		algorithm = "HS256"
	case "HS256", "HS384", "HS512":
	default:
		return nil, fmt.Errorf("unsupported signing algorithm: %s", algorithm)
	}
	if expiresIn == 0 {
		expiresIn = 24 * time.Hour
	}
	if issuer == "" {
		issuer = "storeratings"
	}

	return &JWTManager{
		secret:    []byte(secret),
		algorithm: algorithm,
		expiresIn: expiresIn,
		issuer:    issuer,
	}, nil
}

// ExpiresIn returns the configured token lifetime.
func (jm *JWTManager) ExpiresIn() time.Duration {
	return jm.expiresIn
}

// Generate generates a signed token encoding the user's id, email and role.
func (jm *JWTManager) Generate(userID int64, email string, role ratings.Role) (string, error) {
	if userID == 0 {
		return "", fmt.Errorf("user ID cannot be zero")
	}
	if email == "" {
		return "", fmt.Errorf("email cannot be empty")
	}

	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    jm.issuer,
			Subject:   fmt.Sprintf("%d", userID),
			ExpiresAt: jwt.NewNumericDate(now.Add(jm.expiresIn)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.GetSigningMethod(jm.algorithm), claims)
	tokenString, err := token.SignedString(jm.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Validate validates a token's signature and expiry and returns its claims.
func (jm *JWTManager) Validate(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("token cannot be empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Verify the signing method
		if token.Method.Alg() != jm.algorithm {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jm.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, fmt.Errorf("invalid claims type")
	}

	return claims, nil
}
