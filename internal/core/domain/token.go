package domain

// TokenKind distinguishes access tokens from refresh tokens.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// TokenBundle is the pair of tokens issued on register, login and refresh.
type TokenBundle struct {
	AccessToken  string
	RefreshToken string
}

// AuthResult is the success payload of the token-issuing operations.
type AuthResult struct {
	Tokens TokenBundle
	User   UserView
}
