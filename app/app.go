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

	"github.com/pkg/errors"

	"github.com/smarthelmet/deviceregistry/client/registry"
	"github.com/smarthelmet/deviceregistry/model"
)

// App errors
var (
	ErrNotAuthenticated = errors.New("no authenticated session")
)

// App is the surface the local status API consumes
//
//go:generate ../utils/mockgen.sh
type App interface {
	SessionState() string
	HealthCheck(ctx context.Context) (*model.BackendHealth, error)
}

// RegistryFactory builds a registry client for a session. The default
// is registry.NewClient; tests substitute it.
type RegistryFactory func(
	url string,
	sess *model.Session,
	opts ...registry.ClientOptions,
) (registry.Client, error)
