package domain

// CredentialPair holds the two opaque credentials of a session.
// The access token may be absent (unauthenticated state); an absent
// refresh token forces re-authentication.
type CredentialPair struct {
	AccessToken  string
	RefreshToken string
}

func (p CredentialPair) HasAccess() bool {
	return p.AccessToken != ""
}

func (p CredentialPair) HasRefresh() bool {
	return p.RefreshToken != ""
}
