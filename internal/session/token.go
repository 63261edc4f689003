package session

import "golang.org/x/oauth2"

// TokenSource adapts a [Provider] to [oauth2.TokenSource] so [oauth2.Transport] can attach the bearer header.
//
// The session is read once per request. An absent credential still produces a token, leaving the remote side to
// reject the call.
type TokenSource struct {
	Provider Provider
}

var _ oauth2.TokenSource = TokenSource{}

// Token returns the current credential as a bearer token.
func (ts TokenSource) Token() (*oauth2.Token, error) {
	var token string
	if ts.Provider != nil {
		token = ts.Provider.Current().Token
	}
	return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}, nil
}
