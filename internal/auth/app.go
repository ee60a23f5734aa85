// Package auth authenticates as a GitHub App installation. It signs RS256
// JWTs with the App's private key and exchanges them for short-lived
// installation tokens, exposed as an oauth2.TokenSource.
package auth

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/fivetwenty-io/ghapi/internal/constants"
	ghhttp "github.com/fivetwenty-io/ghapi/internal/http"
	"github.com/fivetwenty-io/ghapi/pkg/ghapi"
	"github.com/fivetwenty-io/ghapi/pkg/schema"
)

// AppSigner signs GitHub App JWTs. It implements ghapi.Credential, so it can
// authenticate the App-level endpoints directly.
type AppSigner struct {
	appID int64
	key   *rsa.PrivateKey
	now   func() time.Time
}

// NewAppSigner parses a PEM encoded RSA key in PKCS#1 or PKCS#8 form.
func NewAppSigner(appID int64, privateKeyPEM []byte) (*AppSigner, error) {
	if appID <= 0 {
		return nil, constants.ErrMissingAppID
	}

	key, err := parsePrivateKey(privateKeyPEM)
	if err != nil {
		return nil, err
	}

	return &AppSigner{appID: appID, key: key, now: time.Now}, nil
}

func parsePrivateKey(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block", constants.ErrInvalidPrivateKey)
	}

	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err == nil {
		return key, nil
	}

	parsed, pkcs8Err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if pkcs8Err != nil {
		return nil, fmt.Errorf("%w: %w", constants.ErrInvalidPrivateKey, err)
	}

	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA key", constants.ErrInvalidPrivateKey)
	}

	return key, nil
}

type jwtClaims struct {
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
	Issuer    string `json:"iss"`
}

// Sign returns a JWT valid for the next ten minutes.
func (s *AppSigner) Sign() (string, error) {
	now := s.now()

	claims, err := json.Marshal(jwtClaims{
		IssuedAt:  now.Add(-constants.AppJWTBackdate).Unix(),
		ExpiresAt: now.Add(constants.AppJWTLifetime).Unix(),
		Issuer:    strconv.FormatInt(s.appID, 10),
	})
	if err != nil {
		return "", fmt.Errorf("encoding claims: %w", err)
	}

	signingInput := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"RS256","typ":"JWT"}`)) +
		"." + base64.RawURLEncoding.EncodeToString(claims)

	digest := sha256.Sum256([]byte(signingInput))

	signature, err := rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("signing JWT: %w", err)
	}

	return signingInput + "." + base64.RawURLEncoding.EncodeToString(signature), nil
}

// Authorization implements ghapi.Credential.
func (s *AppSigner) Authorization(context.Context) (string, error) {
	jwt, err := s.Sign()
	if err != nil {
		return "", err
	}

	return "Bearer " + jwt, nil
}

type installationToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// InstallationTokenSource mints installation tokens and reuses each one
// until it is within the refresh margin of expiry. It is safe for concurrent
// use; callers racing on an expired token share one exchange.
type InstallationTokenSource struct {
	installationID int64
	sender         ghapi.Sender
	logger         ghapi.Logger
	margin         time.Duration

	mu    sync.Mutex
	token *oauth2.Token
}

// NewInstallationTokenSource returns a token source for one installation.
// Tokens are reused until they are within five minutes of expiry. config
// supplies the API root and transport settings; its credential is replaced
// by the App JWT for the exchange.
func NewInstallationTokenSource(config *ghapi.Config, signer *AppSigner, installationID int64) (*InstallationTokenSource, error) {
	if installationID <= 0 {
		return nil, constants.ErrMissingInstallation
	}

	exchangeConfig := config.WithCredential(signer)

	err := exchangeConfig.Normalize()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	sender, err := ghhttp.NewClient(exchangeConfig)
	if err != nil {
		return nil, fmt.Errorf("creating exchange client: %w", err)
	}

	return &InstallationTokenSource{
		installationID: installationID,
		sender:         sender,
		logger:         exchangeConfig.Logger,
		margin:         constants.InstallationTokenRefreshMargin,
	}, nil
}

// Token implements oauth2.TokenSource.
func (s *InstallationTokenSource) Token() (*oauth2.Token, error) {
	return s.TokenContext(context.Background())
}

// TokenContext returns the cached token, exchanging a new one under ctx when
// none is cached or the cached one is about to expire.
func (s *InstallationTokenSource) TokenContext(ctx context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != nil && (s.token.Expiry.IsZero() || time.Until(s.token.Expiry) > s.margin) {
		return s.token, nil
	}

	token, err := s.exchange(ctx)
	if err != nil {
		return nil, err
	}

	s.token = token

	return token, nil
}

func (s *InstallationTokenSource) exchange(ctx context.Context) (*oauth2.Token, error) {
	req := &ghapi.Request{
		Method: http.MethodPost,
		Path:   "app/installations/" + strconv.FormatInt(s.installationID, 10) + "/access_tokens",
	}

	resp, err := s.sender.Send(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", constants.ErrTokenExchangeFailed, err)
	}

	err = ghapi.Classify(req, resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", constants.ErrTokenExchangeFailed, err)
	}

	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("%w: unexpected status %d", constants.ErrTokenExchangeFailed, resp.StatusCode)
	}

	var token installationToken

	err = schema.Unmarshal(resp.Body, &token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", constants.ErrTokenExchangeFailed, err)
	}

	if token.Token == "" {
		return nil, fmt.Errorf("%w: empty token", constants.ErrTokenExchangeFailed)
	}

	s.logger.Debug("obtained installation token", map[string]interface{}{
		"installation_id": s.installationID,
		"expires_at":      token.ExpiresAt,
	})

	return &oauth2.Token{
		AccessToken: token.Token,
		TokenType:   "token",
		Expiry:      token.ExpiresAt,
	}, nil
}
