// Copyright 2025 SmartHelmet sp. z o.o.
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

package app

import (
	"context"
	"sync"
	"time"

	"github.com/mendersoftware/go-lib-micro/log"
	"github.com/pkg/errors"

	"github.com/smarthelmet/deviceregistry/client/auth"
	"github.com/smarthelmet/deviceregistry/client/registry"
	"github.com/smarthelmet/deviceregistry/model"
	"github.com/smarthelmet/deviceregistry/store"
	"github.com/smarthelmet/deviceregistry/utils"
)

const (
	// refresh the access token when it expires within this window
	refreshLeeway = time.Duration(60) * time.Second
	// how often the refresh loop re-evaluates the session
	refreshInterval = time.Duration(30) * time.Second
)

// AuthListener receives session lifecycle events. The session is nil
// for events that end up unauthenticated.
type AuthListener func(event string, sess *model.Session)

// SessionProviderConfig carries the optional collaborators of a
// SessionProvider.
type SessionProviderConfig struct {
	Clock           utils.Clock
	RegistryFactory RegistryFactory
	RegistryOptions []registry.ClientOptions
}

// SessionProvider owns the auth session lifecycle: initial fetch,
// sign-in/sign-out, token refresh while foregrounded, and the registry
// client bound to the current session. It is the single writer of the
// session and of the client's bearer token.
type SessionProvider struct {
	authc       auth.Client
	store       store.DataStore
	registrar   *TokenRegistrar
	registryURL string
	clock       utils.Clock
	newRegistry RegistryFactory
	registryOpt []registry.ClientOptions

	mutex      sync.Mutex
	state      string
	session    *model.Session
	client     registry.Client
	listeners  []AuthListener
	foreground bool
}

// NewSessionProvider returns a new SessionProvider in the Loading
// state. The registrar may be nil when push registration is disabled.
func NewSessionProvider(
	authc auth.Client,
	ds store.DataStore,
	registrar *TokenRegistrar,
	registryURL string,
	config ...SessionProviderConfig,
) *SessionProvider {
	conf := SessionProviderConfig{
		Clock:           utils.RealClock{},
		RegistryFactory: registry.NewClient,
	}
	for _, cfgIn := range config {
		if cfgIn.Clock != nil {
			conf.Clock = cfgIn.Clock
		}
		if cfgIn.RegistryFactory != nil {
			conf.RegistryFactory = cfgIn.RegistryFactory
		}
		if cfgIn.RegistryOptions != nil {
			conf.RegistryOptions = cfgIn.RegistryOptions
		}
	}
	return &SessionProvider{
		authc:       authc,
		store:       ds,
		registrar:   registrar,
		registryURL: registryURL,
		clock:       conf.Clock,
		newRegistry: conf.RegistryFactory,
		registryOpt: conf.RegistryOptions,
		state:       model.AuthStateLoading,
		foreground:  true,
	}
}

// Subscribe registers a listener for auth lifecycle events and
// returns its unsubscribe function.
func (p *SessionProvider) Subscribe(listener AuthListener) func() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.listeners = append(p.listeners, listener)
	idx := len(p.listeners) - 1
	return func() {
		p.mutex.Lock()
		defer p.mutex.Unlock()
		p.listeners[idx] = nil
	}
}

func (p *SessionProvider) emit(event string, sess *model.Session) {
	p.mutex.Lock()
	listeners := make([]AuthListener, len(p.listeners))
	copy(listeners, p.listeners)
	p.mutex.Unlock()
	for _, listener := range listeners {
		if listener != nil {
			listener(event, sess)
		}
	}
}

// Bootstrap performs the initial session fetch: it loads the persisted
// session, refreshes it when stale, and resolves the provider to
// Authenticated or Unauthenticated. A load or refresh failure resolves
// to Unauthenticated, same as a clean miss.
func (p *SessionProvider) Bootstrap(ctx context.Context) error {
	l := log.FromContext(ctx)

	sess, err := p.store.LoadSession(ctx)
	if err == store.ErrSessionNotFound {
		l.Info("no persisted session, starting unauthenticated")
		p.becomeUnauthenticated()
		p.emit(model.AuthEventInitialSession, nil)
		return nil
	} else if err != nil {
		// indistinguishable from "no session" for the caller, but
		// logged as the error it is
		l.Error(errors.Wrap(err, "failed to load persisted session"))
		p.becomeUnauthenticated()
		p.emit(model.AuthEventInitialSession, nil)
		return nil
	}

	if sess.Expired(p.clock.Now(), refreshLeeway) {
		sess, err = p.refreshSession(ctx, sess)
		if err != nil {
			l.Error(errors.Wrap(err, "failed to refresh persisted session"))
			p.becomeUnauthenticated()
			p.emit(model.AuthEventInitialSession, nil)
			return nil
		}
	}

	if err := p.becomeAuthenticated(ctx, sess); err != nil {
		l.Error(errors.Wrap(err, "failed to activate persisted session"))
		p.becomeUnauthenticated()
		p.emit(model.AuthEventInitialSession, nil)
		return nil
	}
	p.emit(model.AuthEventInitialSession, sess)
	p.registerNotifications(ctx, sess)
	return nil
}

// SignIn authenticates with the auth provider and establishes the
// session, persisting it and triggering push-token registration.
func (p *SessionProvider) SignIn(ctx context.Context, email, password string) error {
	l := log.FromContext(ctx)

	sess, err := p.authc.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	if err := p.store.SaveSession(ctx, sess); err != nil {
		l.Error(errors.Wrap(err, "failed to persist session"))
	}
	if err := p.becomeAuthenticated(ctx, sess); err != nil {
		return err
	}
	p.emit(model.AuthEventSignedIn, sess)
	p.registerNotifications(ctx, sess)
	return nil
}

// SignOut revokes the session with the auth provider and ALWAYS
// clears the local session state, network failure or not. The remote
// failure is logged and swallowed: the user-visible contract is "you
// are logged out locally".
func (p *SessionProvider) SignOut(ctx context.Context) {
	l := log.FromContext(ctx)

	p.mutex.Lock()
	sess := p.session
	p.mutex.Unlock()

	if sess != nil {
		if err := p.authc.SignOut(ctx, sess.AccessToken); err != nil {
			l.Error(errors.Wrap(err, "remote sign-out failed (ignoring)"))
		}
	}
	if err := p.store.ClearAuthData(ctx); err != nil {
		l.Error(errors.Wrap(err, "failed to clear persisted auth data"))
	}
	p.becomeUnauthenticated()
	p.emit(model.AuthEventSignedOut, nil)
}

// Session returns a copy of the current session, or nil
func (p *SessionProvider) Session() *model.Session {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.session == nil {
		return nil
	}
	sess := *p.session
	return &sess
}

// SessionState returns the current provider state
func (p *SessionProvider) SessionState() string {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.state
}

// Client returns the registry client bound to the current session
func (p *SessionProvider) Client() (registry.Client, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.client == nil {
		return nil, ErrNotAuthenticated
	}
	return p.client, nil
}

// HealthCheck probes the backend through the current session's client
func (p *SessionProvider) HealthCheck(ctx context.Context) (*model.BackendHealth, error) {
	client, err := p.Client()
	if err != nil {
		return nil, err
	}
	return client.CheckHealth(ctx)
}

// SetForeground toggles the refresh loop. While backgrounded the
// session is left to expire; the next foreground transition or
// Bootstrap picks it back up.
func (p *SessionProvider) SetForeground(foreground bool) {
	p.mutex.Lock()
	p.foreground = foreground
	p.mutex.Unlock()
}

// Run keeps the access token fresh until the context is cancelled.
// Refreshing happens only while foregrounded.
func (p *SessionProvider) Run(ctx context.Context) error {
	l := log.FromContext(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.clock.After(refreshInterval):
		}

		p.mutex.Lock()
		foreground := p.foreground
		sess := p.session
		p.mutex.Unlock()
		if !foreground || sess == nil {
			continue
		}
		if !sess.Expired(p.clock.Now(), refreshLeeway) {
			continue
		}

		newSess, err := p.authc.Refresh(ctx, sess.RefreshToken)
		if err != nil {
			l.Error(errors.Wrap(err, "token refresh failed"))
			continue
		}
		p.mutex.Lock()
		// a sign-out or fresh sign-in that won the race owns the
		// session now; a stale refresh must not resurrect it
		if p.state != model.AuthStateAuthenticated || p.session != sess {
			p.mutex.Unlock()
			continue
		}
		p.session = newSess
		if p.client != nil {
			p.client.UpdateToken(newSess.AccessToken)
		}
		p.mutex.Unlock()
		if err := p.store.SaveSession(ctx, newSess); err != nil {
			l.Error(errors.Wrap(err, "failed to persist refreshed session"))
		}
		p.emit(model.AuthEventTokenRefreshed, newSess)
	}
}

func (p *SessionProvider) refreshSession(
	ctx context.Context,
	sess *model.Session,
) (*model.Session, error) {
	l := log.FromContext(ctx)

	newSess, err := p.authc.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		return nil, err
	}
	if err := p.store.SaveSession(ctx, newSess); err != nil {
		l.Error(errors.Wrap(err, "failed to persist refreshed session"))
	}
	return newSess, nil
}

func (p *SessionProvider) becomeAuthenticated(
	ctx context.Context,
	sess *model.Session,
) error {
	client, err := p.newRegistry(p.registryURL, sess, p.registryOpt...)
	if err != nil {
		return err
	}
	p.mutex.Lock()
	p.state = model.AuthStateAuthenticated
	p.session = sess
	p.client = client
	p.mutex.Unlock()
	return nil
}

func (p *SessionProvider) becomeUnauthenticated() {
	p.mutex.Lock()
	p.state = model.AuthStateUnauthenticated
	p.session = nil
	p.client = nil
	p.mutex.Unlock()
}

// registerNotifications is fired on every session establishment. It is
// best-effort: failure is logged, never surfaced.
func (p *SessionProvider) registerNotifications(
	ctx context.Context,
	sess *model.Session,
) {
	l := log.FromContext(ctx)
	if p.registrar == nil {
		return
	}
	if p.registrar.RegisterTokenWithBackend(ctx, sess) {
		l.Info("push notification token registered")
	} else {
		l.Warn("failed to register push notification token")
	}
}
