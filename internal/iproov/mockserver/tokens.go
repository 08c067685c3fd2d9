package mockserver

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"photoenrol/pkg/domain"
	"photoenrol/pkg/secrets"
)

// TokenIssuer is the iss claim of access tokens minted by the mock.
const TokenIssuer = "mock-iproov"

// AccessTokenTTL is how long a minted access token is valid.
const AccessTokenTTL = time.Hour

// accessTokenClaims mirrors the shape of a client-credentials access token.
type accessTokenClaims struct {
	SPKey string `json:"sp_key"`
	jwt.RegisteredClaims
}

// tokenSigner mints and checks HS256 access tokens with a per-server key.
type tokenSigner struct {
	key []byte
	now func() time.Time
}

func newTokenSigner() *tokenSigner {
	return &tokenSigner{key: []byte(rand.Text()), now: time.Now}
}

func (t *tokenSigner) issue(spKey, clientID string) (string, error) {
	jti, err := secrets.Generate()
	if err != nil {
		return "", err
	}
	now := t.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, accessTokenClaims{
		SPKey: spKey,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   clientID,
			Issuer:    TokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenTTL)),
			ID:        jti,
		},
	})
	return token.SignedString(t.key)
}

// verify checks a "Bearer <jwt>" header value against the signing key,
// the algorithm, the issuer and the expiry.
func (t *tokenSigner) verify(authorization string) bool {
	raw, ok := strings.CutPrefix(authorization, domain.TokenTypeBearer+" ")
	if !ok || raw == "" {
		return false
	}
	token, err := jwt.ParseWithClaims(raw, &accessTokenClaims{}, func(*jwt.Token) (any, error) {
		return t.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	return err == nil && token.Valid
}
