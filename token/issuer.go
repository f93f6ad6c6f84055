package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	InvalidTokenErr   = errors.New("invalid token")
	WrongTokenTypeErr = errors.New("wrong token type")
	RevokedTokenErr   = errors.New("token revoked")
)

// Issuer mints and verifies the access/refresh credential pair served by the mock backend.
type Issuer struct {
	signer     *HMACSigner
	accessTTL  time.Duration
	refreshTTL time.Duration
	revoked    RevocationList
	nowTime    func() time.Time
}

// IssuerOption defines a function type to modify the Issuer instance.
type IssuerOption func(*Issuer)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowTime = nowFunc
	}
}

// WithRevocationList replaces the default in-memory revocation list.
func WithRevocationList(list RevocationList) IssuerOption {
	return func(i *Issuer) {
		i.revoked = list
	}
}

func NewIssuer(secret string, accessTTL, refreshTTL time.Duration, options ...IssuerOption) *Issuer {
	i := &Issuer{
		signer:     NewHMACSigner(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		revoked:    NewInMemoryRevocationList(),
		nowTime:    time.Now,
	}
	for _, opt := range options {
		opt(i)
	}
	return i
}

// IssueAccess creates a short-lived access credential for userID.
func (i *Issuer) IssueAccess(userID, role string) (string, error) {
	return i.issue(userID, role, TypeAccess, i.accessTTL)
}

// IssueRefresh creates a refresh credential for userID. Every call yields a unique jti,
// so a rotated refresh credential never equals the one it replaces.
func (i *Issuer) IssueRefresh(userID string) (string, error) {
	return i.issue(userID, "", TypeRefresh, i.refreshTTL)
}

func (i *Issuer) issue(userID, role, tokenType string, ttl time.Duration) (string, error) {
	now := i.nowTime()
	claims := Claims{
		UserID:    userID,
		Role:      role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.New().String(),
		},
	}
	signed, err := i.signer.Sign(claims)
	if err != nil {
		return "", errors.Wrap(err, "[Issuer.issue]")
	}
	return signed, nil
}

// Verify checks the signature, expiry and type of raw and returns its claims.
func (i *Issuer) Verify(raw, tokenType string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, i.signer.VerificationKey,
		jwt.WithTimeFunc(i.nowTime),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, errors.Wrap(InvalidTokenErr, err.Error())
	}
	if claims.TokenType != tokenType {
		return nil, WrongTokenTypeErr
	}
	if i.revoked.IsRevoked(claims.ID) {
		return nil, RevokedTokenErr
	}
	return claims, nil
}

// Revoke stops a verified credential from verifying again. It is a no-op for
// credentials that do not verify in the first place.
func (i *Issuer) Revoke(raw, tokenType string) {
	claims, err := i.Verify(raw, tokenType)
	if err != nil {
		return
	}
	i.revoked.Revoke(claims.ID, claims.ExpiresAt.Time)
	i.revoked.Cleanup(i.nowTime())
}
