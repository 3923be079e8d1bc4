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
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mendersoftware/go-lib-micro/log"

	"github.com/smarthelmet/deviceregistry/model"
)

const (
	RegisterDeviceURI         = "/register_device"
	UnregisterDeviceURI       = "/unregister_device"
	UnregisterDeviceByUUIDURI = "/unregister_device_by_uuid"
	DeviceInfoURI             = "/device/:uuid/info"
	DeviceLogsURI             = "/device/:uuid/logs"
	ListDevicesURI            = "/list"
	RenameDeviceURI           = "/device/:uuid/rename"
	EFlaraConfigURI           = "/device/:uuid/eflara"
	DeleteAccountURI          = "/account/delete"
	NotificationTokenURI      = "/user/notification"
	HealthCheckURI            = "/health"
)

const defaultTimeout = time.Duration(10) * time.Second

// Client is the device registry client. One client serves one user
// session; the bearer token survives refresh via UpdateToken without
// reconstructing the client.
//
//go:generate ../../utils/mockgen.sh
type Client interface {
	RegisterDevice(
		ctx context.Context,
		req model.DeviceRegistration) (*model.RegisteredDevice, error)
	UnregisterDevice(
		ctx context.Context,
		req model.DeviceRegistration) (*model.OperationStatus, error)
	UnregisterDeviceByUUID(
		ctx context.Context, deviceUUID string) (*model.OperationStatus, error)
	GetDeviceInfo(ctx context.Context, deviceUUID string) (*model.DeviceInfo, error)
	GetDeviceLogs(ctx context.Context, deviceUUID string) (*model.DeviceLogs, error)
	ListDevices(ctx context.Context) ([]model.DeviceRecord, error)
	RenameDevice(
		ctx context.Context,
		deviceUUID, name string) (*model.OperationStatus, error)
	SetEFlaraConfig(ctx context.Context, deviceUUID string, cfg model.EFlaraConfig) error
	DeleteAccount(ctx context.Context) (*model.OperationStatus, error)
	RegisterNotificationToken(ctx context.Context, token string) error
	CheckHealth(ctx context.Context) (*model.BackendHealth, error)
	UpdateToken(token string)
}

type ClientOptions struct {
	Client *http.Client
	// Retries is the number of additional attempts for transport-level
	// failures (APIError.Status == 0). Server verdicts are never retried.
	Retries int
}

// NewClient returns a new registry client bound to the given session.
// It fails before any network activity when the session carries no
// access token.
func NewClient(url string, sess *model.Session, opts ...ClientOptions) (Client, error) {
	if sess == nil || sess.AccessToken == "" {
		return nil, ErrNoSession
	}
	var clientOpts = ClientOptions{
		Client: &http.Client{},
	}
	for _, opt := range opts {
		if opt.Client != nil {
			clientOpts.Client = opt.Client
		}
		if opt.Retries > 0 {
			clientOpts.Retries = opt.Retries
		}
	}

	return &client{
		url:     strings.TrimSuffix(url, "/"),
		token:   sess.AccessToken,
		client:  *clientOpts.Client,
		retries: clientOpts.Retries,
	}, nil
}

type client struct {
	url     string
	client  http.Client
	retries int

	tokenM sync.RWMutex
	token  string
}

// UpdateToken swaps the bearer token used by subsequent calls.
// Requests already in flight keep the token they captured at call
// time.
func (c *client) UpdateToken(token string) {
	c.tokenM.Lock()
	c.token = token
	c.tokenM.Unlock()
}

func (c *client) bearerToken() string {
	c.tokenM.RLock()
	defer c.tokenM.RUnlock()
	return c.token
}

// doRequest performs one authenticated JSON call against the registry
// and decodes the response into out (when non-nil). Non-2xx responses
// and transport failures both surface as *APIError.
func (c *client) doRequest(
	ctx context.Context,
	method, path string,
	body interface{},
	headers http.Header,
	out interface{},
) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return newTransportError(err)
		}
	}
	// the token is captured here, once per request; a concurrent
	// UpdateToken affects the next call, not this one
	token := c.bearerToken()

	var rsp *http.Response
	for attempt := 0; ; attempt++ {
		var reqBody *bytes.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		} else {
			reqBody = bytes.NewReader(nil)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.url+path, reqBody)
		if err != nil {
			return newTransportError(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		for key, values := range headers {
			req.Header.Del(key)
			for _, value := range values {
				req.Header.Add(key, value)
			}
		}

		rsp, err = c.client.Do(req)
		if err == nil {
			break
		}
		if attempt < c.retries {
			continue
		}
		return newTransportError(err)
	}
	defer rsp.Body.Close()

	raw, err := ioutil.ReadAll(rsp.Body)
	if err != nil {
		return newTransportError(err)
	}

	isJSON := strings.Contains(rsp.Header.Get("Content-Type"), "application/json")
	var responseData interface{}
	if isJSON && len(raw) > 0 {
		if err := json.Unmarshal(raw, &responseData); err != nil {
			return newTransportError(err)
		}
	} else if !isJSON {
		responseData = string(raw)
	}

	if rsp.StatusCode < http.StatusOK || rsp.StatusCode >= 300 {
		return newStatusError(rsp.StatusCode, responseData)
	}
	if out != nil && len(raw) > 0 && isJSON {
		if err := json.Unmarshal(raw, out); err != nil {
			return newTransportError(err)
		}
	}
	return nil
}

func (c *client) RegisterDevice(
	ctx context.Context,
	req model.DeviceRegistration,
) (*model.RegisteredDevice, error) {
	l := log.FromContext(ctx)
	l.Debugf("RegisterDevice %s/%s", req.ProductID, req.DeviceName)

	if err := req.Validate(); err != nil {
		return nil, err
	}
	device := &model.RegisteredDevice{}
	err := c.doRequest(ctx, http.MethodPost, RegisterDeviceURI, req, nil, device)
	if err != nil {
		return nil, err
	}
	return device, nil
}

func (c *client) UnregisterDevice(
	ctx context.Context,
	req model.DeviceRegistration,
) (*model.OperationStatus, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	status := &model.OperationStatus{}
	err := c.doRequest(ctx, http.MethodPost, UnregisterDeviceURI, req, nil, status)
	if err != nil {
		return nil, err
	}
	return status, nil
}

func (c *client) UnregisterDeviceByUUID(
	ctx context.Context,
	deviceUUID string,
) (*model.OperationStatus, error) {
	req := model.DeviceUnregistration{DeviceUUID: deviceUUID}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	status := &model.OperationStatus{}
	err := c.doRequest(ctx, http.MethodPost, UnregisterDeviceByUUIDURI, req, nil, status)
	if err != nil {
		return nil, err
	}
	return status, nil
}

func (c *client) GetDeviceInfo(
	ctx context.Context,
	deviceUUID string,
) (*model.DeviceInfo, error) {
	if err := validateDeviceUUID(deviceUUID); err != nil {
		return nil, err
	}
	repl := strings.NewReplacer(":uuid", deviceUUID)
	info := &model.DeviceInfo{}
	err := c.doRequest(ctx, http.MethodGet, repl.Replace(DeviceInfoURI), nil, nil, info)
	if err != nil {
		return nil, err
	}
	return info, nil
}

func (c *client) GetDeviceLogs(
	ctx context.Context,
	deviceUUID string,
) (*model.DeviceLogs, error) {
	if err := validateDeviceUUID(deviceUUID); err != nil {
		return nil, err
	}
	repl := strings.NewReplacer(":uuid", deviceUUID)
	logs := &model.DeviceLogs{}
	err := c.doRequest(ctx, http.MethodGet, repl.Replace(DeviceLogsURI), nil, nil, logs)
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func (c *client) ListDevices(ctx context.Context) ([]model.DeviceRecord, error) {
	devices := []model.DeviceRecord{}
	err := c.doRequest(ctx, http.MethodGet, ListDevicesURI, nil, nil, &devices)
	if err != nil {
		return nil, err
	}
	return devices, nil
}

func (c *client) RenameDevice(
	ctx context.Context,
	deviceUUID, name string,
) (*model.OperationStatus, error) {
	if err := validateDeviceUUID(deviceUUID); err != nil {
		return nil, err
	}
	req := model.DeviceRename{Name: name}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	repl := strings.NewReplacer(":uuid", deviceUUID)
	status := &model.OperationStatus{}
	err := c.doRequest(ctx, http.MethodPost, repl.Replace(RenameDeviceURI), req, nil, status)
	if err != nil {
		return nil, err
	}
	return status, nil
}

func (c *client) SetEFlaraConfig(
	ctx context.Context,
	deviceUUID string,
	cfg model.EFlaraConfig,
) error {
	if err := validateDeviceUUID(deviceUUID); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	repl := strings.NewReplacer(":uuid", deviceUUID)
	return c.doRequest(ctx, http.MethodPost, repl.Replace(EFlaraConfigURI), cfg, nil, nil)
}

func (c *client) DeleteAccount(ctx context.Context) (*model.OperationStatus, error) {
	status := &model.OperationStatus{}
	err := c.doRequest(ctx, http.MethodDelete, DeleteAccountURI, nil, nil, status)
	if err != nil {
		return nil, err
	}
	return status, nil
}

func (c *client) RegisterNotificationToken(ctx context.Context, token string) error {
	req := model.NotificationToken{Token: token}
	if err := req.Validate(); err != nil {
		return err
	}
	return c.doRequest(ctx, http.MethodPost, NotificationTokenURI, req, nil, nil)
}

func (c *client) CheckHealth(ctx context.Context) (*model.BackendHealth, error) {
	health := &model.BackendHealth{}
	err := c.doRequest(ctx, http.MethodGet, HealthCheckURI, nil, nil, health)
	if err != nil {
		return nil, err
	}
	return health, nil
}

func validateDeviceUUID(deviceUUID string) error {
	return validation.Validate(deviceUUID,
		validation.Required.Error("device uuid must not be empty"))
}
