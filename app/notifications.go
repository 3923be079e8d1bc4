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

	"github.com/mendersoftware/go-lib-micro/log"
	"github.com/pkg/errors"

	"github.com/smarthelmet/deviceregistry/client/push"
	"github.com/smarthelmet/deviceregistry/client/registry"
	"github.com/smarthelmet/deviceregistry/model"
)

// TokenRegistrar obtains the push token from the notification bridge
// and registers it with the backend for the current session. The token
// fetch is cached for the process lifetime; the backend registration
// is re-fired on every session establishment (the server upserts).
type TokenRegistrar struct {
	bridge      push.Client
	registryURL string
	projectID   string
	newRegistry RegistryFactory
	registryOpt []registry.ClientOptions

	tokenM      sync.Mutex
	cachedToken string
}

// TokenRegistrarConfig carries the optional collaborators of a
// TokenRegistrar.
type TokenRegistrarConfig struct {
	RegistryFactory RegistryFactory
	RegistryOptions []registry.ClientOptions
}

// NewTokenRegistrar returns a new TokenRegistrar
func NewTokenRegistrar(
	bridge push.Client,
	registryURL string,
	projectID string,
	config ...TokenRegistrarConfig,
) *TokenRegistrar {
	conf := TokenRegistrarConfig{
		RegistryFactory: registry.NewClient,
	}
	for _, cfgIn := range config {
		if cfgIn.RegistryFactory != nil {
			conf.RegistryFactory = cfgIn.RegistryFactory
		}
		if cfgIn.RegistryOptions != nil {
			conf.RegistryOptions = cfgIn.RegistryOptions
		}
	}
	return &TokenRegistrar{
		bridge:      bridge,
		registryURL: registryURL,
		projectID:   projectID,
		newRegistry: conf.RegistryFactory,
		registryOpt: conf.RegistryOptions,
	}
}

// RegisterTokenWithBackend pushes the device's notification token to
// the backend under the given session. Best-effort by contract: every
// failure resolves to false and a log line, nothing escapes as an
// error or panic.
func (r *TokenRegistrar) RegisterTokenWithBackend(
	ctx context.Context,
	sess *model.Session,
) bool {
	l := log.FromContext(ctx)

	token, err := r.pushToken(ctx)
	if err != nil {
		l.Warn(errors.Wrap(err, "no push token available"))
		return false
	}
	if sess == nil || sess.AccessToken == "" {
		l.Warn("no valid session for token registration")
		return false
	}
	client, err := r.newRegistry(r.registryURL, sess, r.registryOpt...)
	if err != nil {
		l.Warn(errors.Wrap(err, "failed to construct registry client"))
		return false
	}
	if err := client.RegisterNotificationToken(ctx, token); err != nil {
		l.Warn(errors.Wrap(err, "failed to register push token"))
		return false
	}
	return true
}

// CurrentToken returns the cached push token, if any
func (r *TokenRegistrar) CurrentToken() string {
	r.tokenM.Lock()
	defer r.tokenM.Unlock()
	return r.cachedToken
}

// pushToken returns the process-wide push token, obtaining it from the
// bridge on first use. Preconditions checked in order: physical
// device, notification permission (requested when undetermined).
func (r *TokenRegistrar) pushToken(ctx context.Context) (string, error) {
	r.tokenM.Lock()
	defer r.tokenM.Unlock()
	if r.cachedToken != "" {
		return r.cachedToken, nil
	}

	profile, err := r.bridge.GetDeviceProfile(ctx)
	if err != nil {
		return "", err
	}
	if !profile.IsDevice {
		return "", errors.New(
			"push notifications only work on physical devices")
	}

	status, err := r.bridge.GetPermissions(ctx)
	if err != nil {
		return "", err
	}
	if status != push.PermissionGranted {
		status, err = r.bridge.RequestPermissions(ctx)
		if err != nil {
			return "", err
		}
	}
	if status != push.PermissionGranted {
		return "", errors.New("notification permission not granted")
	}

	token, err := r.bridge.GetPushToken(ctx, r.projectID)
	if err != nil {
		return "", err
	}
	r.cachedToken = token
	return token, nil
}
