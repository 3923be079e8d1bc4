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

package auth

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smarthelmet/deviceregistry/utils"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

func (c fixedClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- c.now.Add(d)
	return ch
}

var _ utils.Clock = fixedClock{}

func TestSignIn(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		Name string

		ResponseCode int
		ResponseBody string

		Error        error
		ErrorMessage string
	}{{
		Name: "ok",

		ResponseCode: http.StatusOK,
		ResponseBody: `{
			"access_token": "jwt-access",
			"token_type": "bearer",
			"expires_in": 3600,
			"refresh_token": "jwt-refresh",
			"user": {"id": "user-1", "email": "jan@example.com"}
		}`,
	}, {
		Name: "error, wrong password",

		ResponseCode: http.StatusBadRequest,
		ResponseBody: `{"error":"invalid_grant",` +
			`"error_description":"Invalid login credentials"}`,
		Error: ErrInvalidCredentials,
	}, {
		Name: "error, provider down",

		ResponseCode: http.StatusInternalServerError,
		ResponseBody: `{}`,
		ErrorMessage: "unexpected HTTP status",
	}}
	for i := range testCases {
		tc := testCases[i]
		t.Run(tc.Name, func(t *testing.T) {
			var gotReq *http.Request
			var gotBody []byte
			srv := httptest.NewServer(http.HandlerFunc(
				func(w http.ResponseWriter, r *http.Request) {
					gotBody, _ = ioutil.ReadAll(r.Body)
					gotReq = r.Clone(context.Background())
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(tc.ResponseCode)
					_, _ = w.Write([]byte(tc.ResponseBody))
				}))
			defer srv.Close()

			client := NewClient(srv.URL, "anon-key", ClientOptions{
				Clock: fixedClock{now: now},
			})
			sess, err := client.SignIn(context.Background(),
				"jan@example.com", "secret")

			if tc.Error != nil {
				assert.ErrorIs(t, err, tc.Error)
				return
			} else if tc.ErrorMessage != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.ErrorMessage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "jwt-access", sess.AccessToken)
			assert.Equal(t, "jwt-refresh", sess.RefreshToken)
			assert.Equal(t, "user-1", sess.UserID)
			assert.Equal(t, "jan@example.com", sess.Email)
			assert.Equal(t, now.Add(time.Hour), sess.ExpiresAt)

			require.NotNil(t, gotReq)
			assert.Equal(t, tokenURI, gotReq.URL.Path)
			assert.Equal(t, grantPassword,
				gotReq.URL.Query().Get("grant_type"))
			assert.Equal(t, "anon-key", gotReq.Header.Get(headerAPIKey))
			var body map[string]string
			require.NoError(t, json.Unmarshal(gotBody, &body))
			assert.Equal(t, "jan@example.com", body["email"])
			assert.Equal(t, "secret", body["password"])
		})
	}
}

func TestRefresh(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		Name string

		ResponseCode int
		ResponseBody string

		Error error
	}{{
		Name: "ok",

		ResponseCode: http.StatusOK,
		ResponseBody: `{
			"access_token": "jwt-access-2",
			"token_type": "bearer",
			"expires_in": 3600,
			"refresh_token": "jwt-refresh-2",
			"user": {"id": "user-1"}
		}`,
	}, {
		Name: "error, refresh token revoked",

		ResponseCode: http.StatusBadRequest,
		ResponseBody: `{"error":"invalid_grant"}`,
		Error:        ErrInvalidGrant,
	}}
	for i := range testCases {
		tc := testCases[i]
		t.Run(tc.Name, func(t *testing.T) {
			var gotGrant string
			srv := httptest.NewServer(http.HandlerFunc(
				func(w http.ResponseWriter, r *http.Request) {
					gotGrant = r.URL.Query().Get("grant_type")
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(tc.ResponseCode)
					_, _ = w.Write([]byte(tc.ResponseBody))
				}))
			defer srv.Close()

			client := NewClient(srv.URL, "anon-key")
			sess, err := client.Refresh(
				context.Background(), "jwt-refresh")

			assert.Equal(t, grantRefreshToken, gotGrant)
			if tc.Error != nil {
				assert.ErrorIs(t, err, tc.Error)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "jwt-access-2", sess.AccessToken)
			assert.Equal(t, "jwt-refresh-2", sess.RefreshToken)
		})
	}
}

func TestSignOut(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		Name string

		ResponseCode int

		Error bool
	}{{
		Name:         "ok",
		ResponseCode: http.StatusNoContent,
	}, {
		Name:         "error, provider rejects",
		ResponseCode: http.StatusUnauthorized,
		Error:        true,
	}}
	for i := range testCases {
		tc := testCases[i]
		t.Run(tc.Name, func(t *testing.T) {
			var gotAuth string
			srv := httptest.NewServer(http.HandlerFunc(
				func(w http.ResponseWriter, r *http.Request) {
					gotAuth = r.Header.Get("Authorization")
					w.WriteHeader(tc.ResponseCode)
				}))
			defer srv.Close()

			client := NewClient(srv.URL+"/", "anon-key")
			err := client.SignOut(context.Background(), "jwt-access")

			assert.Equal(t, "Bearer jwt-access", gotAuth)
			if tc.Error {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
