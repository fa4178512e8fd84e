package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/mchmarny/genrelay/pkg/net"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// GetToken exchanges the client credentials for an access token. It is used
// to check credentials before they are saved.
func GetToken(ctx context.Context, tokenURL, clientID, clientSecret string) (*oauth2.Token, error) {
	if tokenURL == "" {
		return nil, errors.New("token URL is required")
	}
	if clientID == "" || clientSecret == "" {
		return nil, errors.New("client id and secret are required")
	}

	base, err := net.GetHTTPClient()
	if err != nil {
		return nil, fmt.Errorf("failed to get http client: %w", err)
	}

	conf := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}

	t, err := conf.Token(context.WithValue(ctx, oauth2.HTTPClient, base))
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	if t.AccessToken == "" {
		return nil, errors.New("access token is empty")
	}
	return t, nil
}
