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

package registry

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smarthelmet/deviceregistry/model"
)

func testSession() *model.Session {
	return &model.Session{
		AccessToken:  "test-access-token",
		RefreshToken: "test-refresh-token",
	}
}

// capturingServer records every request (path, method, headers, body)
// and plays back the configured responses in order.
type capturingServer struct {
	*httptest.Server

	mutex     sync.Mutex
	requests  []capturedRequest
	responses []cannedResponse
}

type capturedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

type cannedResponse struct {
	Status      int
	ContentType string
	Body        string
}

func newCapturingServer(responses ...cannedResponse) *capturingServer {
	srv := &capturingServer{responses: responses}
	srv.Server = httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			body, _ := ioutil.ReadAll(r.Body)
			srv.mutex.Lock()
			srv.requests = append(srv.requests, capturedRequest{
				Method: r.Method,
				Path:   r.URL.Path,
				Header: r.Header.Clone(),
				Body:   body,
			})
			idx := len(srv.requests) - 1
			srv.mutex.Unlock()

			rsp := cannedResponse{
				Status:      http.StatusOK,
				ContentType: "application/json",
				Body:        "{}",
			}
			if idx < len(srv.responses) {
				rsp = srv.responses[idx]
			}
			if rsp.ContentType != "" {
				w.Header().Set("Content-Type", rsp.ContentType)
			}
			w.WriteHeader(rsp.Status)
			_, _ = w.Write([]byte(rsp.Body))
		}))
	return srv
}

func (srv *capturingServer) Requests() []capturedRequest {
	srv.mutex.Lock()
	defer srv.mutex.Unlock()
	reqs := make([]capturedRequest, len(srv.requests))
	copy(reqs, srv.requests)
	return reqs
}

func TestNewClientFailsFast(t *testing.T) {
	t.Parallel()

	srv := newCapturingServer()
	defer srv.Close()

	testCases := []struct {
		Name    string
		Session *model.Session
	}{{
		Name:    "nil session",
		Session: nil,
	}, {
		Name:    "empty access token",
		Session: &model.Session{RefreshToken: "r"},
	}}
	for i := range testCases {
		tc := testCases[i]
		t.Run(tc.Name, func(t *testing.T) {
			client, err := NewClient(srv.URL, tc.Session)
			assert.Nil(t, client)
			assert.ErrorIs(t, err, ErrNoSession)
		})
	}
	// no request must ever be attempted
	assert.Len(t, srv.Requests(), 0)
}

func TestBaseURLNormalization(t *testing.T) {
	t.Parallel()

	srv := newCapturingServer(
		cannedResponse{Status: 200, ContentType: "application/json", Body: "[]"},
		cannedResponse{Status: 200, ContentType: "application/json", Body: "[]"},
	)
	defer srv.Close()

	withSlash, err := NewClient(srv.URL+"/", testSession())
	require.NoError(t, err)
	withoutSlash, err := NewClient(srv.URL, testSession())
	require.NoError(t, err)

	_, err = withSlash.ListDevices(context.Background())
	assert.NoError(t, err)
	_, err = withoutSlash.ListDevices(context.Background())
	assert.NoError(t, err)

	reqs := srv.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, reqs[0].Path, reqs[1].Path)
	assert.Equal(t, ListDevicesURI, reqs[0].Path)
}

func TestRequestHeaders(t *testing.T) {
	t.Parallel()

	srv := newCapturingServer(
		cannedResponse{Status: 200, ContentType: "application/json", Body: "[]"},
	)
	defer srv.Close()

	client, err := NewClient(srv.URL, testSession())
	require.NoError(t, err)
	_, err = client.ListDevices(context.Background())
	require.NoError(t, err)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "application/json", reqs[0].Header.Get("Content-Type"))
	assert.Equal(t, "Bearer test-access-token",
		reqs[0].Header.Get("Authorization"))
}

func TestUpdateToken(t *testing.T) {
	t.Parallel()

	srv := newCapturingServer(
		cannedResponse{Status: 200, ContentType: "application/json", Body: "[]"},
		cannedResponse{Status: 200, ContentType: "application/json", Body: "[]"},
	)
	defer srv.Close()

	client, err := NewClient(srv.URL, testSession())
	require.NoError(t, err)

	_, err = client.ListDevices(context.Background())
	require.NoError(t, err)
	client.UpdateToken("refreshed-token")
	_, err = client.ListDevices(context.Background())
	require.NoError(t, err)

	reqs := srv.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "Bearer test-access-token",
		reqs[0].Header.Get("Authorization"))
	assert.Equal(t, "Bearer refreshed-token",
		reqs[1].Header.Get("Authorization"))
}

func TestUpdateTokenInFlight(t *testing.T) {
	t.Parallel()

	tokens := make(chan string, 2)
	release := make(chan struct{})
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			tokens <- r.Header.Get("Authorization")
			if atomic.AddInt32(&calls, 1) == 1 {
				<-release
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[]`))
		}))
	defer srv.Close()

	client, err := NewClient(srv.URL, testSession())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := client.ListDevices(context.Background())
		done <- err
	}()

	// the first request is parked server-side; swap the token under it
	inFlight := <-tokens
	client.UpdateToken("refreshed-token")
	close(release)
	require.NoError(t, <-done)

	_, err = client.ListDevices(context.Background())
	require.NoError(t, err)

	// the in-flight request keeps the token it captured at call time,
	// only the next request carries the new one
	assert.Equal(t, "Bearer test-access-token", inFlight)
	assert.Equal(t, "Bearer refreshed-token", <-tokens)
}

func TestListDevices(t *testing.T) {
	t.Parallel()

	srv := newCapturingServer(cannedResponse{
		Status:      200,
		ContentType: "application/json",
		Body: `[{"internal_uuid":"abc-123","product_id":"SM01",` +
			`"name":null,"created_at":"2024-01-01T00:00:00Z"}]`,
	})
	defer srv.Close()

	client, err := NewClient(srv.URL, testSession())
	require.NoError(t, err)
	devices, err := client.ListDevices(context.Background())
	require.NoError(t, err)

	require.Len(t, devices, 1)
	assert.Equal(t, "abc-123", devices[0].InternalUUID)
	assert.Equal(t, "SM01", devices[0].ProductID)
	assert.Nil(t, devices[0].Name)
	assert.Equal(t, "SM01", devices[0].DisplayName())
	assert.Equal(t,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		devices[0].CreatedAt)
}

func TestRegisterDevice(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		Name string

		Request  model.DeviceRegistration
		Response cannedResponse

		Result      *model.RegisteredDevice
		Error       bool
		ErrorStatus int
		ErrorDetail string
		NumRequests int
	}{{
		Name: "ok",

		Request: model.DeviceRegistration{
			DeviceName: "AA:BB:CC",
			ProductID:  "SM01",
		},
		Response: cannedResponse{
			Status:      200,
			ContentType: "application/json",
			Body: `{"uuid":"abc-123","name":"AA:BB:CC",` +
				`"created_at":"2024-01-01T00:00:00Z"}`,
		},
		Result: &model.RegisteredDevice{
			UUID:      "abc-123",
			Name:      "AA:BB:CC",
			CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		NumRequests: 1,
	}, {
		Name: "error, already registered",

		Request: model.DeviceRegistration{
			DeviceName: "AA:BB:CC",
			ProductID:  "SM01",
		},
		Response: cannedResponse{
			Status:      http.StatusConflict,
			ContentType: "application/json",
			Body:        `{"detail":"already registered"}`,
		},
		Error:       true,
		ErrorStatus: http.StatusConflict,
		ErrorDetail: "already registered",
		NumRequests: 1,
	}, {
		Name: "error, empty device name rejected before I/O",

		Request: model.DeviceRegistration{
			ProductID: "SM01",
		},
		Error:       true,
		ErrorStatus: -1,
		NumRequests: 0,
	}}
	for i := range testCases {
		tc := testCases[i]
		t.Run(tc.Name, func(t *testing.T) {
			srv := newCapturingServer(tc.Response)
			defer srv.Close()

			client, err := NewClient(srv.URL, testSession())
			require.NoError(t, err)
			device, err := client.RegisterDevice(
				context.Background(), tc.Request)

			if !tc.Error {
				require.NoError(t, err)
				assert.Equal(t, tc.Result, device)
			} else if tc.ErrorStatus >= 0 {
				apiErr, ok := AsAPIError(err)
				require.True(t, ok, "error is not an *APIError: %v", err)
				assert.Equal(t, tc.ErrorStatus, apiErr.Status)
				assert.Equal(t,
					"HTTP 409: Conflict", apiErr.Error())
				rsp, ok := apiErr.Response.(map[string]interface{})
				require.True(t, ok)
				assert.Equal(t, tc.ErrorDetail, rsp["detail"])
			} else {
				// validation error, not an APIError
				assert.Error(t, err)
				_, ok := AsAPIError(err)
				assert.False(t, ok)
			}
			assert.Len(t, srv.Requests(), tc.NumRequests)
		})
	}
}

func TestErrorContract(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		Name string

		Response cannedResponse

		Status  int
		Message string
		Code    string
		Payload interface{}
	}{{
		Name: "json error body",

		Response: cannedResponse{
			Status:      http.StatusBadRequest,
			ContentType: "application/json",
			Body:        `{"detail":"invalid product"}`,
		},
		Status:  http.StatusBadRequest,
		Message: "HTTP 400: Bad Request",
		Payload: map[string]interface{}{"detail": "invalid product"},
	}, {
		Name: "structured error code",

		Response: cannedResponse{
			Status:      http.StatusUnprocessableEntity,
			ContentType: "application/json",
			Body:        `{"code":"invalid_name","message":"name too long"}`,
		},
		Status:  http.StatusUnprocessableEntity,
		Message: "HTTP 422: Unprocessable Entity",
		Code:    "invalid_name",
		Payload: map[string]interface{}{
			"code":    "invalid_name",
			"message": "name too long",
		},
	}, {
		Name: "plain text error body",

		Response: cannedResponse{
			Status:      http.StatusBadGateway,
			ContentType: "text/plain",
			Body:        "upstream exploded",
		},
		Status:  http.StatusBadGateway,
		Message: "HTTP 502: Bad Gateway",
		Payload: "upstream exploded",
	}}
	for i := range testCases {
		tc := testCases[i]
		t.Run(tc.Name, func(t *testing.T) {
			srv := newCapturingServer(tc.Response)
			defer srv.Close()

			client, err := NewClient(srv.URL, testSession())
			require.NoError(t, err)
			_, err = client.ListDevices(context.Background())

			apiErr, ok := AsAPIError(err)
			require.True(t, ok, "error is not an *APIError: %v", err)
			assert.Equal(t, tc.Status, apiErr.Status)
			assert.Equal(t, tc.Message, apiErr.Message)
			assert.Equal(t, tc.Code, apiErr.Code)
			assert.Equal(t, tc.Payload, apiErr.Response)
			assert.False(t, apiErr.Transient())
		})
	}
}

func TestTransportError(t *testing.T) {
	t.Parallel()

	srv := newCapturingServer()
	srv.Close() // connection refused from now on

	client, err := NewClient(srv.URL, testSession())
	require.NoError(t, err)
	_, err = client.GetDeviceInfo(context.Background(), "uuid-1")

	apiErr, ok := AsAPIError(err)
	require.True(t, ok, "error is not an *APIError: %v", err)
	assert.Equal(t, 0, apiErr.Status)
	assert.Nil(t, apiErr.Response)
	assert.Contains(t, apiErr.Error(), "Network error: ")
	assert.True(t, apiErr.Transient())
}

func TestTimeout(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	defer close(block)
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			<-block
		}))
	defer srv.Close()

	client, err := NewClient(srv.URL, testSession())
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(
		context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = client.GetDeviceInfo(ctx, "uuid-1")

	apiErr, ok := AsAPIError(err)
	require.True(t, ok, "error is not an *APIError: %v", err)
	assert.Equal(t, 0, apiErr.Status)
	assert.Nil(t, apiErr.Response)
}

func TestTransportRetries(t *testing.T) {
	t.Parallel()

	srv := newCapturingServer(cannedResponse{
		Status:      http.StatusConflict,
		ContentType: "application/json",
		Body:        `{"detail":"nope"}`,
	})
	defer srv.Close()

	// server verdicts are not retried, even with retries configured
	client, err := NewClient(srv.URL, testSession(),
		ClientOptions{Retries: 3})
	require.NoError(t, err)
	_, err = client.DeleteAccount(context.Background())
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Len(t, srv.Requests(), 1)
}

func TestTransportRetrySucceeds(t *testing.T) {
	t.Parallel()

	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&attempts, 1) == 1 {
				// drop the connection without a response
				conn, _, err := w.(http.Hijacker).Hijack()
				require.NoError(t, err)
				conn.Close()
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[]`))
		}))
	defer srv.Close()

	client, err := NewClient(srv.URL, testSession(),
		ClientOptions{Retries: 1})
	require.NoError(t, err)
	devices, err := client.ListDevices(context.Background())

	require.NoError(t, err)
	assert.Empty(t, devices)
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestSetEFlaraConfig(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		Name string

		Config model.EFlaraConfig

		Error       bool
		NumRequests int
	}{{
		Name: "ok, enabled with address",

		Config:      model.EFlaraConfig{Address: "Polna 1, Warszawa", Enabled: true},
		NumRequests: 1,
	}, {
		Name: "ok, disabled without address",

		Config:      model.EFlaraConfig{Enabled: false},
		NumRequests: 1,
	}, {
		Name: "error, enabled without address",

		Config:      model.EFlaraConfig{Enabled: true},
		Error:       true,
		NumRequests: 0,
	}}
	for i := range testCases {
		tc := testCases[i]
		t.Run(tc.Name, func(t *testing.T) {
			srv := newCapturingServer(cannedResponse{Status: 204})
			defer srv.Close()

			client, err := NewClient(srv.URL, testSession())
			require.NoError(t, err)
			err = client.SetEFlaraConfig(
				context.Background(), "abc-123", tc.Config)

			if tc.Error {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			reqs := srv.Requests()
			require.Len(t, reqs, tc.NumRequests)
			if tc.NumRequests > 0 {
				assert.Equal(t, "/device/abc-123/eflara", reqs[0].Path)
				var body map[string]interface{}
				require.NoError(t, json.Unmarshal(reqs[0].Body, &body))
				assert.Equal(t, tc.Config.Enabled, body["enabled"])
			}
		})
	}
}

func TestRenameDevice(t *testing.T) {
	t.Parallel()

	srv := newCapturingServer(cannedResponse{
		Status:      200,
		ContentType: "application/json",
		Body:        `{"status":"ok","detail":"renamed"}`,
	})
	defer srv.Close()

	client, err := NewClient(srv.URL, testSession())
	require.NoError(t, err)

	// 31 characters, rejected before any request goes out
	_, err = client.RenameDevice(context.Background(),
		"abc-123", "0123456789012345678901234567890")
	assert.Error(t, err)
	assert.Len(t, srv.Requests(), 0)

	status, err := client.RenameDevice(context.Background(),
		"abc-123", "kitchen detector")
	require.NoError(t, err)
	assert.Equal(t, &model.OperationStatus{
		Status: "ok",
		Detail: "renamed",
	}, status)
	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/device/abc-123/rename", reqs[0].Path)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.JSONEq(t, `{"name":"kitchen detector"}`, string(reqs[0].Body))
}

func TestGetDeviceLogs(t *testing.T) {
	t.Parallel()

	srv := newCapturingServer(cannedResponse{
		Status:      200,
		ContentType: "application/json",
		Body: `{"events":[{"name":"smoke_alarm",` +
			`"timestamp":"2024-06-01T12:00:00Z"},{"name":"test_button"}],` +
			`"properties":[{"properties":{"battery":98}}]}`,
	})
	defer srv.Close()

	client, err := NewClient(srv.URL, testSession())
	require.NoError(t, err)
	logs, err := client.GetDeviceLogs(context.Background(), "abc-123")
	require.NoError(t, err)

	require.Len(t, logs.Events, 2)
	assert.Equal(t, "smoke_alarm", logs.Events[0].Name)
	require.NotNil(t, logs.Events[0].Timestamp)
	assert.Nil(t, logs.Events[1].Timestamp)
	require.Len(t, logs.Properties, 1)
	assert.Equal(t, float64(98), logs.Properties[0].Properties["battery"])
}

func TestUnregisterDeviceByUUID(t *testing.T) {
	t.Parallel()

	srv := newCapturingServer(cannedResponse{
		Status:      200,
		ContentType: "application/json",
		Body:        `{"status":"ok","detail":"unregistered"}`,
	})
	defer srv.Close()

	client, err := NewClient(srv.URL, testSession())
	require.NoError(t, err)

	_, err = client.UnregisterDeviceByUUID(context.Background(), "")
	assert.Error(t, err)
	assert.Len(t, srv.Requests(), 0)

	status, err := client.UnregisterDeviceByUUID(
		context.Background(), "abc-123")
	require.NoError(t, err)
	assert.Equal(t, "ok", status.Status)
	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, UnregisterDeviceByUUIDURI, reqs[0].Path)
	assert.JSONEq(t, `{"deviceUUID":"abc-123"}`, string(reqs[0].Body))
}

func TestCheckHealth(t *testing.T) {
	t.Parallel()

	keysCount := 2
	srv := newCapturingServer(cannedResponse{
		Status:      200,
		ContentType: "application/json",
		Body: `{"status":"healthy","timestamp":"2024-06-01T12:00:00Z",` +
			`"jwks_keys_count":2,"available_key_ids":["key-1","key-2"]}`,
	})
	defer srv.Close()

	client, err := NewClient(srv.URL, testSession())
	require.NoError(t, err)
	health, err := client.CheckHealth(context.Background())
	require.NoError(t, err)

	assert.Equal(t, &model.BackendHealth{
		Status:          "healthy",
		Timestamp:       "2024-06-01T12:00:00Z",
		JWKSKeysCount:   &keysCount,
		AvailableKeyIDs: []string{"key-1", "key-2"},
	}, health)
}

func TestRegisterNotificationToken(t *testing.T) {
	t.Parallel()

	srv := newCapturingServer(cannedResponse{Status: 204})
	defer srv.Close()

	client, err := NewClient(srv.URL, testSession())
	require.NoError(t, err)
	err = client.RegisterNotificationToken(
		context.Background(), "ExponentPushToken[zzz]")
	require.NoError(t, err)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, NotificationTokenURI, reqs[0].Path)
	assert.JSONEq(t, `{"token":"ExponentPushToken[zzz]"}`,
		string(reqs[0].Body))
}
