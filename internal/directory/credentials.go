package directory

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ClientCredentials agrupa los datos para obtener tokens de la API de administración.
type ClientCredentials struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Audience     string
	Timeout      time.Duration
}

// NewClientCredentialsHTTPClient devuelve un *http.Client que adjunta y renueva el bearer token.
func NewClientCredentialsHTTPClient(ctx context.Context, creds ClientCredentials) (*http.Client, error) {
	if creds.ClientID == "" || creds.ClientSecret == "" || creds.BaseURL == "" {
		return nil, errors.New("directory client credentials missing required fields")
	}
	tokenURL, err := TokenURL(creds.BaseURL)
	if err != nil {
		return nil, err
	}
	audience := creds.Audience
	if audience == "" {
		audience = creds.BaseURL + "/"
	}
	timeout := creds.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	cfg := clientcredentials.Config{
		ClientID:       creds.ClientID,
		ClientSecret:   creds.ClientSecret,
		TokenURL:       tokenURL,
		EndpointParams: url.Values{"audience": {audience}},
		AuthStyle:      oauth2.AuthStyleInParams,
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: timeout})
	client := cfg.Client(ctx)
	client.Timeout = timeout
	return client, nil
}

// TokenURL deriva el endpoint de tokens (/oauth/token) a partir de la URL base de la API.
func TokenURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", errors.New("directory base url must be absolute")
	}
	u.Path = "/oauth/token"
	u.RawQuery = ""
	return u.String(), nil
}
