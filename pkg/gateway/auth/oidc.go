package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/synaptica-ai/medtriage/pkg/common/logger"
	"github.com/synaptica-ai/medtriage/pkg/gateway/httpclient"
	"golang.org/x/oauth2"
)

// Discovery is the subset of the OpenID provider metadata used for the
// authorization-code flow.
type Discovery struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
}

// UserInfo is the identity returned by the provider after login.
type UserInfo struct {
	Subject           string `json:"sub"`
	Email             string `json:"email"`
	Name              string `json:"name"`
	PreferredUsername string `json:"preferred_username"`
}

// Username picks the account key for a clinician logging in via OIDC.
func (u UserInfo) Username() string {
	switch {
	case u.PreferredUsername != "":
		return u.PreferredUsername
	case u.Email != "":
		return u.Email
	default:
		return u.Subject
	}
}

type OIDCAuthenticator struct {
	config      *oauth2.Config
	userinfoURL string
	client      *http.Client
}

// NewOIDCAuthenticator discovers the provider's endpoints under issuer.
func NewOIDCAuthenticator(ctx context.Context, issuer, clientID, clientSecret, redirectURL string, client *http.Client) (*OIDCAuthenticator, error) {
	if issuer == "" || clientID == "" {
		return nil, fmt.Errorf("OIDC configuration incomplete")
	}
	if client == nil {
		client = httpclient.New(10 * time.Second)
	}

	discovery, err := discover(ctx, client, issuer)
	if err != nil {
		return nil, err
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint: oauth2.Endpoint{
			AuthURL:  discovery.AuthorizationEndpoint,
			TokenURL: discovery.TokenEndpoint,
		},
		Scopes: []string{"openid", "profile", "email"},
	}

	return &OIDCAuthenticator{
		config:      config,
		userinfoURL: discovery.UserinfoEndpoint,
		client:      client,
	}, nil
}

func discover(ctx context.Context, client *http.Client, issuer string) (Discovery, error) {
	url := strings.TrimRight(issuer, "/") + "/.well-known/openid-configuration"
	var discovery Discovery
	err := httpclient.Retry(ctx, 3, 200*time.Millisecond, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return httpclient.Permanent(fmt.Errorf("OIDC discovery endpoint returned status %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("OIDC discovery endpoint returned status %d", resp.StatusCode)
		}
		if err := json.NewDecoder(resp.Body).Decode(&discovery); err != nil {
			return httpclient.Permanent(fmt.Errorf("decoding discovery document: %w", err))
		}
		return nil
	})
	if err != nil {
		return Discovery{}, fmt.Errorf("fetching OIDC discovery document: %w", err)
	}
	if discovery.AuthorizationEndpoint == "" || discovery.TokenEndpoint == "" || discovery.UserinfoEndpoint == "" {
		return Discovery{}, errors.New("OIDC discovery document is missing endpoints")
	}
	return discovery, nil
}

func (a *OIDCAuthenticator) AuthCodeURL(state string) string {
	return a.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for the caller's identity.
func (a *OIDCAuthenticator) Exchange(ctx context.Context, code string) (UserInfo, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.client)
	token, err := a.config.Exchange(ctx, code)
	if err != nil {
		return UserInfo{}, fmt.Errorf("exchanging authorization code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.userinfoURL, nil)
	if err != nil {
		return UserInfo{}, err
	}
	resp, err := a.config.Client(ctx, token).Do(req)
	if err != nil {
		return UserInfo{}, fmt.Errorf("fetching userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return UserInfo{}, fmt.Errorf("userinfo endpoint returned status %d", resp.StatusCode)
	}

	var info UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return UserInfo{}, fmt.Errorf("decoding userinfo: %w", err)
	}
	if info.Subject == "" {
		return UserInfo{}, errors.New("userinfo has no subject")
	}
	logger.Log.WithField("sub", info.Subject).Debug("OIDC login exchanged")
	return info, nil
}
