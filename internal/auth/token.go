package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"rfcheck/internal/platform/config"
	id "rfcheck/pkg/domain"
	dErrors "rfcheck/pkg/domain-errors"
)

// subjectNamespace maps non-UUID token subjects onto stable user ids.
var subjectNamespace = uuid.MustParse("6f1c9a52-3f7d-4f0e-9b39-2c5a7e1d8b64")

// Claims are the bearer token claims. UserID is accepted for tokens minted by
// older issuers that do not set sub.
type Claims struct {
	UserID string `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenService verifies HS256 bearer tokens. Issuance exists for operators
// and tests; users normally receive tokens from an external identity provider.
type TokenService struct {
	signingKey []byte
	issuer     string
	audience   string
}

func NewTokenService(cfg config.AuthConfig) (*TokenService, error) {
	if cfg.JWTSigningKey == "" {
		return nil, errors.New("jwt signing key is required")
	}
	return &TokenService{
		signingKey: []byte(cfg.JWTSigningKey),
		issuer:     cfg.JWTIssuer,
		audience:   cfg.JWTAudience,
	}, nil
}

func (s *TokenService) GenerateAccessToken(userID id.UserID, expiresIn time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	}
	if s.audience != "" {
		claims.Audience = jwt.ClaimStrings{s.audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
}

// Verify checks signature, expiry and the configured issuer and audience, and
// returns the user the token speaks for.
func (s *TokenService) Verify(tokenString string) (id.UserID, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	if s.audience != "" {
		opts = append(opts, jwt.WithAudience(s.audience))
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return s.signingKey, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return id.UserID{}, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return id.UserID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return id.UserID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	subject := claims.Subject
	if subject == "" {
		subject = claims.UserID
	}
	if subject == "" {
		return id.UserID{}, dErrors.New(dErrors.CodeUnauthorized, "token has no subject")
	}
	return subjectToUserID(subject), nil
}

func subjectToUserID(subject string) id.UserID {
	if u, err := uuid.Parse(subject); err == nil && u != uuid.Nil {
		return id.UserID(u)
	}
	return id.UserID(uuid.NewSHA1(subjectNamespace, []byte(subject)))
}
