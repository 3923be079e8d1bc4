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

// Values for the device state attribute
const (
	DeviceStateOnline  = "online"
	DeviceStateOffline = "offline"
	DeviceStateUnknown = "unknown"
)

// DeviceRecord is one row of the user's device registry as returned by
// the /list endpoint. Name may be null, in which case the UI derives a
// display name from the product ID.
type DeviceRecord struct {
	InternalUUID string    `json:"internal_uuid"`
	ProductID    string    `json:"product_id"`
	Name         *string   `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
}

// DisplayName returns the device name or a fallback derived from the
// product ID when the registry holds no name.
func (d DeviceRecord) DisplayName() string {
	if d.Name != nil && *d.Name != "" {
		return *d.Name
	}
	return d.ProductID
}

// DeviceInfo is a point-in-time status snapshot of a single device
type DeviceInfo struct {
	State  string        `json:"state"`
	Name   *string       `json:"name,omitempty"`
	EFlara *EFlaraConfig `json:"eFlara,omitempty"`
}

// EFlaraConfig holds the eFlara rescue-service forwarding settings of a
// device: the street address reported to the service and whether
// forwarding is enabled.
type EFlaraConfig struct {
	Address string `json:"address"`
	Enabled bool   `json:"enabled"`
}

func (c EFlaraConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Address,
			validation.Required.When(c.Enabled).
				Error("address is required when eFlara is enabled"),
		),
	)
}

// DeviceEvent is a single event from the device log
type DeviceEvent struct {
	Name      string     `json:"name"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// PropertyReport is a single property snapshot from the device log
type PropertyReport struct {
	Properties map[string]interface{} `json:"properties"`
	Timestamp  *time.Time             `json:"timestamp,omitempty"`
}

// DeviceLogs holds the event and property history of a device. Both
// slices come back unordered; callers sort for display.
type DeviceLogs struct {
	Events     []DeviceEvent    `json:"events"`
	Properties []PropertyReport `json:"properties"`
}

// DeviceRegistration is the request payload for registering (and the
// name-keyed variant of unregistering) a device
type DeviceRegistration struct {
	DeviceName string `json:"deviceName"`
	ProductID  string `json:"productID"`
}

func (r DeviceRegistration) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.DeviceName, validation.Required),
		validation.Field(&r.ProductID, validation.Required),
	)
}

// DeviceUnregistration is the request payload for unregistering a
// device by its registry UUID
type DeviceUnregistration struct {
	DeviceUUID string `json:"deviceUUID"`
}

func (r DeviceUnregistration) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.DeviceUUID, validation.Required),
	)
}

// DeviceRename is the request payload for renaming a device
type DeviceRename struct {
	Name string `json:"name"`
}

func (r DeviceRename) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 30)),
	)
}

// RegisteredDevice is the response to a successful device registration
type RegisteredDevice struct {
	UUID      string    `json:"uuid"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// OperationStatus is the generic status/detail response returned by
// mutating registry endpoints
type OperationStatus struct {
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// NotificationToken is the request payload for registering a push
// notification token with the backend
type NotificationToken struct {
	Token string `json:"token"`
}

func (r NotificationToken) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
	)
}

// BackendHealth is the response of the backend /health endpoint
type BackendHealth struct {
	Status          string   `json:"status"`
	Timestamp       string   `json:"timestamp"`
	JWKSKeysCount   *int     `json:"jwks_keys_count,omitempty"`
	AvailableKeyIDs []string `json:"available_key_ids,omitempty"`
	Error           string   `json:"error,omitempty"`
}
