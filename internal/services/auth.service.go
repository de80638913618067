package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

const (
	tokenIssuer    = "sysmonitor"
	secretFileName = ".sysmonitor-secret-key"
	minSecretLen   = 32
)

// AuthService manages access tokens for the snapshot stream
type AuthService struct {
	secretKey   []byte
	tokenExpiry time.Duration
	now         func() time.Time
}

// CustomClaims represents the JWT claims structure
type CustomClaims struct {
	ClientName string `json:"client_name"`
	jwt.RegisteredClaims
}

// NewAuthService creates the token service. An empty secret loads the
// per-user secret file, generating and persisting it on first use.
func NewAuthService(secretKey string, tokenExpiry time.Duration, log zerolog.Logger) (*AuthService, error) {
	secretKey = strings.TrimSpace(secretKey)
	if secretKey == "" {
		var err error
		secretKey, err = loadOrCreateSecret(secretFilePath(), log)
		if err != nil {
			return nil, err
		}
	}

	if len(secretKey) < minSecretLen {
		log.Warn().Int("length", len(secretKey)).Msgf("secret key shorter than %d bytes is weak for HMAC-SHA256", minSecretLen)
	}
	if tokenExpiry <= 0 {
		tokenExpiry = 90 * 24 * time.Hour
	}

	return &AuthService{
		secretKey:   []byte(secretKey),
		tokenExpiry: tokenExpiry,
		now:         time.Now,
	}, nil
}

func secretFilePath() string {
	if homeDir, err := os.UserHomeDir(); err == nil && homeDir != "" {
		return filepath.Join(homeDir, secretFileName)
	}
	return filepath.Join(os.TempDir(), secretFileName)
}

func loadOrCreateSecret(path string, log zerolog.Logger) (string, error) {
	if data, err := os.ReadFile(path); err == nil && len(strings.TrimSpace(string(data))) > 0 {
		log.Info().Str("path", path).Msg("loaded persisted secret key")
		return strings.TrimSpace(string(data)), nil
	}

	randomBytes := make([]byte, minSecretLen)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("generate secret key: %w", err)
	}
	secret := hex.EncodeToString(randomBytes)

	if err := os.WriteFile(path, []byte(secret), 0o600); err != nil {
		log.Warn().Str("path", path).Err(err).Msg("could not persist secret key, tokens will not survive a restart")
	} else {
		log.Info().Str("path", path).Msg("generated and persisted secret key")
	}
	return secret, nil
}

// GenerateToken creates a signed token for the named client
func (a *AuthService) GenerateToken(clientName string) (string, error) {
	now := a.now()
	claims := CustomClaims{
		ClientName: clientName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secretKey)
}

// ValidateToken verifies and parses a token
func (a *AuthService) ValidateToken(tokenString string) (*CustomClaims, error) {
	claims := &CustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secretKey, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// TokenExpiry returns when a token generated now would expire
func (a *AuthService) TokenExpiry() time.Time {
	return a.now().Add(a.tokenExpiry)
}
