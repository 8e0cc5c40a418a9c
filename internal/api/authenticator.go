package api

import (
	"context"
	"sync"
	"time"

	"github.com/michalkurzeja/go-clock"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/connectedcar/edge-vehicle-adapter/internal/backoff"
	"github.com/connectedcar/edge-vehicle-adapter/internal/config"
)

// Authenticator owns the credential lifecycle towards the identity
// provider. Tokens are held in process memory only; a restart performs a
// fresh login.
type Authenticator interface {
	// Login authenticates with the configured account credentials.
	Login(ctx context.Context) error
	// AccessToken returns a currently valid access token, refreshing it
	// first when expired. It fails with ErrAuthUnavailable when the
	// identity provider cannot be reached.
	AccessToken(ctx context.Context) (string, error)
	// Renew discards the cached access token and fetches a fresh one. The
	// connection supervisor calls it after the push channel reported an
	// authorization expiry.
	Renew(ctx context.Context) error
	// Authenticated reports whether credentials are present.
	Authenticated() bool
}

type authenticator struct {
	mu      sync.Mutex
	http    HTTPClient
	cfgSvc  *config.Service
	backoff *backoff.Backoff

	credentials Credentials
	expiresAt   time.Time
	nextAttempt time.Time
}

// NewAuthenticator creates a new instance of the Authenticator.
func NewAuthenticator(http HTTPClient, cfgSvc *config.Service) Authenticator {
	return &authenticator{
		http:    http,
		cfgSvc:  cfgSvc,
		backoff: backoff.New(cfgSvc.GetReconnectBackoff()),
	}
}

func (a *authenticator) Login(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	credentials, err := a.http.Login(ctx, a.cfgSvc.GetUsername(), a.cfgSvc.GetPassword())
	if err != nil {
		return a.classify(err)
	}

	a.setCredentials(credentials)
	a.backoff.Reset()

	log.WithField("expires_at", a.expiresAt.Format(time.RFC3339)).
		Debug("authenticator: logged in")

	return nil
}

func (a *authenticator) AccessToken(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.credentials.Empty() {
		return "", errors.Wrap(ErrAuthUnavailable, "not logged in")
	}

	if clock.Now().UTC().Before(a.expiresAt) {
		return a.credentials.AccessToken, nil
	}

	log.WithField("expired_at", a.expiresAt.Format(time.RFC3339)).
		Debug("authenticator: access token expired, refreshing...")

	if err := a.refresh(ctx); err != nil {
		return "", err
	}

	return a.credentials.AccessToken, nil
}

func (a *authenticator) Renew(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.credentials.Empty() {
		return errors.Wrap(ErrAuthUnavailable, "not logged in")
	}

	return a.refresh(ctx)
}

func (a *authenticator) Authenticated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return !a.credentials.Empty()
}

// refresh must be called with the mutex held. A rejected refresh token
// falls back to a full login with the configured account credentials.
func (a *authenticator) refresh(ctx context.Context) error {
	if clock.Now().Before(a.nextAttempt) {
		return errors.Wrap(ErrAuthUnavailable, "too many refresh attempts, backoff is in use")
	}

	credentials, err := a.http.RefreshToken(ctx, a.credentials.AccessToken, a.credentials.RefreshToken)
	if err != nil {
		if !IsUnauthorized(err) {
			a.nextAttempt = clock.Now().Add(a.backoff.Next())

			return a.classify(err)
		}

		log.WithError(err).Info("authenticator: refresh token rejected, retrying with full login")

		credentials, err = a.http.Login(ctx, a.cfgSvc.GetUsername(), a.cfgSvc.GetPassword())
		if err != nil {
			a.nextAttempt = clock.Now().Add(a.backoff.Next())

			return a.classify(err)
		}
	}

	a.setCredentials(credentials)
	a.backoff.Reset()
	a.nextAttempt = time.Time{}

	return nil
}

func (a *authenticator) setCredentials(credentials *Credentials) {
	a.credentials = *credentials
	a.expiresAt = clock.Now().UTC().Add(time.Duration(credentials.ExpiresIn) * time.Second)

	if credentials.ExpiresIn != 0 {
		return
	}

	expiresAt, err := tokenExpiration(credentials.AccessToken)
	if err != nil {
		log.WithError(err).Warn("authenticator: cannot determine token expiration, assuming an hour")

		a.expiresAt = clock.Now().UTC().Add(time.Hour)

		return
	}

	a.expiresAt = expiresAt
}

// classify maps transport and HTTP failures onto the error taxonomy the
// engine understands.
func (a *authenticator) classify(err error) error {
	if IsUnauthorized(err) {
		return errors.Wrap(ErrAuthExpired, err.Error())
	}

	if StatusCode(err) == 0 {
		return errors.Wrap(ErrAuthUnavailable, err.Error())
	}

	return err
}

// Empty checks if credentials are empty.
func (c Credentials) Empty() bool {
	return c == Credentials{}
}
