package net

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	maxIdleConns     = 10
	timeoutInSeconds = 60
	retryMax         = 3
	clientAgent      = "genrelay/1.0 (+https://github.com/mchmarny/genrelay)"
)

var (
	reqTransport = &http.Transport{
		MaxIdleConns:          maxIdleConns,
		IdleConnTimeout:       timeoutInSeconds * time.Second,
		DisableCompression:    true,
		DisableKeepAlives:     false,
		ResponseHeaderTimeout: time.Duration(timeoutInSeconds) * time.Second,
	}
)

// GetHTTPClient returns a client that retries transient failures and keeps cookies.
func GetHTTPClient() (*http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("error creating cookie jar: %w", err)
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = retryMax
	rc.Logger = slog.Default()
	rc.HTTPClient = &http.Client{
		Timeout:   time.Duration(timeoutInSeconds) * time.Second,
		Transport: reqTransport,
	}

	c := rc.StandardClient()
	c.Jar = jar
	return c, nil
}

// GetOAuthClient returns a client authenticating with a static bearer token.
func GetOAuthClient(ctx context.Context, token string) *http.Client {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{
			TokenType:   "Bearer",
			AccessToken: token,
		},
	)
	return oauth2.NewClient(withBaseClient(ctx), ts)
}

// GetClientCredentialsClient returns a client that obtains and refreshes
// tokens using the OAuth2 client credentials grant.
func GetClientCredentialsClient(ctx context.Context, tokenURL, clientID, clientSecret string, scopes ...string) *http.Client {
	conf := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		Scopes:       scopes,
	}
	return conf.Client(withBaseClient(ctx))
}

func withBaseClient(ctx context.Context) context.Context {
	base, err := GetHTTPClient()
	if err != nil {
		slog.Debug("using default http client for oauth", "error", err)
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, base)
}
