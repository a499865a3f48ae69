package model

// Identity is an upstream-asserted user identity.
type Identity struct {
	UserID   int64
	Username string
}

// IdentityVerifier validates identity assertions issued by a trusted upstream.
type IdentityVerifier interface {
	GenerateIdentityToken(identity Identity) (string, error)
	ParseIdentityToken(token string) (Identity, error)
}
