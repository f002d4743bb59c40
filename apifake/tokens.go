package apifake

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var (
	errWrongTokenType = errors.New("wrong token type")
	errBlacklisted    = errors.New("token is blacklisted")
	errRevoked        = errors.New("token revoked")
)

// tokenIssuer mints and checks JWT access and refresh tokens the way the
// reference backend does. Refresh tokens are blacklisted by jti on logout and
// on rotation. Access tokens carry a generation; bumping it revokes them all.
type tokenIssuer struct {
	signer     *hmacSigner
	accessTTL  time.Duration
	refreshTTL time.Duration
	nowFunc    func() time.Time
	lock       sync.Mutex
	blacklist  map[string]struct{}
	generation int
}

func newTokenIssuer(secret string, accessTTL, refreshTTL time.Duration, now func() time.Time) *tokenIssuer {
	return &tokenIssuer{
		signer:     newHMACSigner(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		nowFunc:    now,
		blacklist:  make(map[string]struct{}),
	}
}

func (ti *tokenIssuer) issue(u *user, tokenType string) (string, error) {
	ttl := ti.accessTTL
	if tokenType == tokenTypeRefresh {
		ttl = ti.refreshTTL
	}
	now := ti.nowFunc()

	ti.lock.Lock()
	generation := ti.generation
	ti.lock.Unlock()

	return ti.signer.Sign(jwt.MapClaims{
		"token_type": tokenType,
		"user_id":    u.ID,
		"iat":        now.Unix(),
		"exp":        now.Add(ttl).Unix(),
		"jti":        uuid.New().String(),
		"gen":        generation,
	})
}

func (ti *tokenIssuer) pair(u *user) (access string, refresh string, err error) {
	if access, err = ti.issue(u, tokenTypeAccess); err != nil {
		return "", "", err
	}
	if refresh, err = ti.issue(u, tokenTypeRefresh); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// verify checks signature, expiry, type, blacklist and generation
func (ti *tokenIssuer) verify(raw, tokenType string) (jwt.MapClaims, error) {
	claims, err := ti.signer.Parse(raw, jwt.WithTimeFunc(ti.nowFunc))
	if err != nil {
		return nil, err
	}
	if claims["token_type"] != tokenType {
		return nil, errWrongTokenType
	}

	ti.lock.Lock()
	defer ti.lock.Unlock()
	if jti, _ := claims["jti"].(string); jti != "" {
		if _, ok := ti.blacklist[jti]; ok {
			return nil, errBlacklisted
		}
	}
	if tokenType == tokenTypeAccess {
		if gen, _ := claims["gen"].(float64); int(gen) != ti.generation {
			return nil, errRevoked
		}
	}
	return claims, nil
}

func (ti *tokenIssuer) revoke(claims jwt.MapClaims) {
	jti, _ := claims["jti"].(string)
	if jti == "" {
		return
	}
	ti.lock.Lock()
	defer ti.lock.Unlock()
	ti.blacklist[jti] = struct{}{}
}

func (ti *tokenIssuer) revokeAccessTokens() {
	ti.lock.Lock()
	defer ti.lock.Unlock()
	ti.generation++
}

func userID(claims jwt.MapClaims) int {
	id, _ := claims["user_id"].(float64)
	return int(id)
}
