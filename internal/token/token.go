package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrLinkExpired means the token was well-formed and correctly signed
	// but its lifetime has passed.
	ErrLinkExpired = errors.New("download link expired")
	// ErrLinkInvalid covers every other verification failure: bad signature,
	// corrupted payload, wrong algorithm. Callers must not distinguish
	// further, so a tampered token and a garbage one look identical.
	ErrLinkInvalid = errors.New("invalid download link")
)

// AudienceDownload marks a token as a download capability. Verification
// requires it, so a download link can never pass for a session token even
// if both were signed with the same secret.
const AudienceDownload = "download"

// LinkClaims is the signed payload of a capability download token. It binds
// one document to the user who issued the link; validity is proven purely by
// signature and expiry, nothing is persisted.
type LinkClaims struct {
	DocumentID string `json:"doc_id"`
	jwt.RegisteredClaims
}

// Issuer mints and verifies short-lived HS256 download tokens.
// The compact JWT form is URL-safe and can be embedded as a path segment.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an Issuer with the given signing secret and token lifetime.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Mint signs a token granting download access to documentID until the
// lifetime elapses. Authorization must be checked by the caller beforehand;
// the issuer itself never consults ownership.
func (i *Issuer) Mint(documentID, userID string) (string, error) {
	now := i.now()
	claims := LinkClaims{
		DocumentID: documentID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Audience:  jwt.ClaimStrings{AudienceDownload},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Verify validates signature and expiry and returns the embedded claims.
// Expired tokens yield ErrLinkExpired; everything else yields ErrLinkInvalid.
func (i *Issuer) Verify(tokenString string) (*LinkClaims, error) {
	claims := &LinkClaims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(AudienceDownload),
		jwt.WithTimeFunc(func() time.Time { return i.now() }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrLinkExpired
		}
		return nil, ErrLinkInvalid
	}
	if !tok.Valid || claims.DocumentID == "" {
		return nil, ErrLinkInvalid
	}
	return claims, nil
}
