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

package push

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDeviceProfile(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, deviceURI, r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(
				`{"is_device":true,"platform":"android"}`))
		}))
	defer srv.Close()

	client := NewClient(srv.URL)
	profile, err := client.GetDeviceProfile(context.Background())
	require.NoError(t, err)
	assert.True(t, profile.IsDevice)
	assert.Equal(t, "android", profile.Platform)
}

func TestPermissions(t *testing.T) {
	t.Parallel()

	var requested bool
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			switch r.URL.Path {
			case permissionsURI:
				_, _ = w.Write([]byte(`{"status":"undetermined"}`))
			case requestPermissionsURI:
				requested = true
				_, _ = w.Write([]byte(`{"status":"granted"}`))
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
	defer srv.Close()

	client := NewClient(srv.URL)
	status, err := client.GetPermissions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PermissionUndetermined, status)

	status, err = client.RequestPermissions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PermissionGranted, status)
	assert.True(t, requested)
}

func TestGetPushToken(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		Name string

		ResponseCode int
		ResponseBody string

		Token string
		Error bool
	}{{
		Name: "ok",

		ResponseCode: http.StatusOK,
		ResponseBody: `{"token":"ExponentPushToken[zzz]"}`,
		Token:        "ExponentPushToken[zzz]",
	}, {
		Name: "error, empty token",

		ResponseCode: http.StatusOK,
		ResponseBody: `{"token":""}`,
		Error:        true,
	}, {
		Name: "error, bridge failure",

		ResponseCode: http.StatusInternalServerError,
		ResponseBody: `{}`,
		Error:        true,
	}}
	for i := range testCases {
		tc := testCases[i]
		t.Run(tc.Name, func(t *testing.T) {
			var gotBody []byte
			srv := httptest.NewServer(http.HandlerFunc(
				func(w http.ResponseWriter, r *http.Request) {
					assert.Equal(t, pushTokenURI, r.URL.Path)
					gotBody, _ = ioutil.ReadAll(r.Body)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(tc.ResponseCode)
					_, _ = w.Write([]byte(tc.ResponseBody))
				}))
			defer srv.Close()

			client := NewClient(srv.URL)
			token, err := client.GetPushToken(
				context.Background(), "project-1")

			if tc.Error {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.Token, token)
			var body map[string]string
			require.NoError(t, json.Unmarshal(gotBody, &body))
			assert.Equal(t, "project-1", body["project_id"])
		})
	}
}
