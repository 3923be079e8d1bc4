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

package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Values for the session provider state
const (
	AuthStateLoading         = "loading"
	AuthStateUnauthenticated = "unauthenticated"
	AuthStateAuthenticated   = "authenticated"
)

// Auth lifecycle events emitted by the session provider
const (
	AuthEventInitialSession = "INITIAL_SESSION"
	AuthEventSignedIn       = "SIGNED_IN"
	AuthEventSignedOut      = "SIGNED_OUT"
	AuthEventTokenRefreshed = "TOKEN_REFRESHED"
)

// Session represents a signed-in user session as issued by the auth
// provider. The access token is the bearer credential for every
// registry call; the refresh token outlives it and is used to obtain
// the next access token.
type Session struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email,omitempty"`
}

func (s Session) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.AccessToken, validation.Required),
		validation.Field(&s.RefreshToken, validation.Required),
	)
}

// Expired reports whether the access token is expired, or expires
// within the given leeway, at the given instant.
func (s Session) Expired(now time.Time, leeway time.Duration) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(leeway).Before(s.ExpiresAt)
}
