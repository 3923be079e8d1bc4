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
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// ErrNoSession is returned by NewClient when the provided session is
// missing or carries no access token. The check runs before any
// network activity.
var ErrNoSession = errors.New("registry: no valid session provided")

// APIError is the uniform error value produced for every failed
// registry call. Status holds the HTTP status of the response, or 0
// for transport-level failures (DNS, connect, timeout, unparsable
// body) where no server verdict exists. Response carries the response
// body: decoded JSON when the server declared application/json, the
// raw text otherwise, nil for transport failures.
type APIError struct {
	Message  string
	Status   int
	Code     string
	Response interface{}
}

func (e *APIError) Error() string {
	return e.Message
}

// Transient reports whether the error is a transport-level failure
// that never reached the server and may be retried.
func (e *APIError) Transient() bool {
	return e.Status == 0
}

// AsAPIError unwraps err into an *APIError
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func newStatusError(status int, payload interface{}) *APIError {
	apiErr := &APIError{
		Message:  fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status)),
		Status:   status,
		Response: payload,
	}
	// servers emitting the structured error shape get exact-match
	// error codes instead of message inspection
	if obj, ok := payload.(map[string]interface{}); ok {
		if code, ok := obj["code"].(string); ok {
			apiErr.Code = code
		}
	}
	return apiErr
}

func newTransportError(cause error) *APIError {
	return &APIError{
		Message: "Network error: " + cause.Error(),
		Status:  0,
	}
}
