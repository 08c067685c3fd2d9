package domain

// GrantType represents an OAuth 2.0 grant type.
type GrantType string

// GrantTypeClientCredentials is the only grant the access-token endpoint is asked for.
const GrantTypeClientCredentials GrantType = "client_credentials"

// String returns the string representation of the grant type.
func (g GrantType) String() string {
	return string(g)
}

// TokenTypeBearer is the Authorization scheme used with access tokens.
const TokenTypeBearer = "Bearer"

// BearerAuthorization formats an Authorization header value for an access token.
func BearerAuthorization(accessToken string) string {
	return TokenTypeBearer + " " + accessToken
}
