package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	PurposeAccess        = "access"
	PurposePasswordReset = "password_reset"

	DefaultAccessTTL = 24 * time.Hour
	DefaultResetTTL  = 30 * time.Minute
)

// ErrInvalidToken is the only failure a verifier reports. Expired, malformed,
// badly signed and wrong-purpose tokens are indistinguishable to callers.
var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	Email   string `json:"email,omitempty"`
	Purpose string `json:"purpose"`
	Stamp   string `json:"pst,omitempty"`
	jwt.RegisteredClaims
}

// AccessClaims is the session identity carried by an access token.
type AccessClaims struct {
	Subject   string
	Email     string
	ExpiresAt time.Time
}

// ResetClaims is the content of a verified password-reset token.
type ResetClaims struct {
	Subject   string
	Stamp     string
	TokenID   string
	ExpiresAt time.Time
}

type TokenService struct {
	secret    []byte
	issuer    string
	accessTTL time.Duration
	resetTTL  time.Duration
	now       func() time.Time
}

func NewTokenService(secret, issuer string, accessTTL, resetTTL time.Duration) *TokenService {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if resetTTL <= 0 {
		resetTTL = DefaultResetTTL
	}
	return &TokenService{
		secret:    []byte(secret),
		issuer:    issuer,
		accessTTL: accessTTL,
		resetTTL:  resetTTL,
		now:       time.Now,
	}
}

// WithClock swaps the time source; used by tests to step past expiry.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

func (s *TokenService) AccessTTL() time.Duration { return s.accessTTL }

func (s *TokenService) ResetTTL() time.Duration { return s.resetTTL }

// IssueAccessToken signs c with an expiry ttl from now; ttl <= 0 uses the default.
func (s *TokenService) IssueAccessToken(c AccessClaims, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.accessTTL
	}
	return s.sign(Claims{
		Email:   c.Email,
		Purpose: PurposeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: c.Subject,
		},
	}, ttl)
}

func (s *TokenService) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	claims, err := s.parse(tokenString, PurposeAccess)
	if err != nil {
		return nil, err
	}
	return &AccessClaims{
		Subject:   claims.Subject,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// IssueResetToken signs a single-purpose token bound to the current password stamp.
func (s *TokenService) IssueResetToken(subject, stamp string) (string, error) {
	return s.sign(Claims{
		Purpose: PurposePasswordReset,
		Stamp:   stamp,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: subject,
		},
	}, s.resetTTL)
}

func (s *TokenService) VerifyResetToken(tokenString string) (*ResetClaims, error) {
	claims, err := s.parse(tokenString, PurposePasswordReset)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return &ResetClaims{
		Subject:   claims.Subject,
		Stamp:     claims.Stamp,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *TokenService) sign(claims Claims, ttl time.Duration) (string, error) {
	now := s.now()
	claims.Issuer = s.issuer
	claims.ID = uuid.NewString()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.NotBefore = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *TokenService) parse(tokenString, purpose string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid || claims.Purpose != purpose {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
