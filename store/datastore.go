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

package store

import (
	"context"
	"errors"

	"github.com/smarthelmet/deviceregistry/model"
)

// DataStore persists the auth session between process restarts
//
//go:generate ../utils/mockgen.sh
type DataStore interface {
	SaveSession(ctx context.Context, sess *model.Session) error
	LoadSession(ctx context.Context) (*model.Session, error)
	// ClearAuthData removes every persisted auth entry. Sign-out calls
	// it unconditionally, even when the remote sign-out failed.
	ClearAuthData(ctx context.Context) error
	Close() error
}

var (
	ErrSessionNotFound = errors.New("store: session not found")
)
