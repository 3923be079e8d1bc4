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

// Package push talks to the on-device notification bridge: the local
// service wrapping the OS notification subsystem. The bridge answers
// whether the host is a physical device, manages the notification
// permission, and hands out the push token issued by the platform
// push service.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Permission status values reported by the bridge
const (
	PermissionGranted      = "granted"
	PermissionDenied       = "denied"
	PermissionUndetermined = "undetermined"
)

const (
	deviceURI             = "/v1/device"
	permissionsURI        = "/v1/permissions"
	requestPermissionsURI = "/v1/permissions/request"
	pushTokenURI          = "/v1/token"
)

const defaultTimeout = time.Duration(30) * time.Second

// DeviceProfile describes the host the bridge runs on
type DeviceProfile struct {
	IsDevice bool   `json:"is_device"`
	Platform string `json:"platform"`
}

// Client is the notification bridge client
//
//go:generate ../../utils/mockgen.sh
type Client interface {
	GetDeviceProfile(ctx context.Context) (*DeviceProfile, error)
	GetPermissions(ctx context.Context) (string, error)
	RequestPermissions(ctx context.Context) (string, error)
	GetPushToken(ctx context.Context, projectID string) (string, error)
}

type ClientOptions struct {
	Client *http.Client
}

// NewClient returns a new notification bridge client
func NewClient(url string, opts ...ClientOptions) Client {
	var clientOpts = ClientOptions{
		Client: &http.Client{},
	}
	for _, opt := range opts {
		if opt.Client != nil {
			clientOpts.Client = opt.Client
		}
	}
	return &client{
		url:    strings.TrimSuffix(url, "/"),
		client: *clientOpts.Client,
	}
}

type client struct {
	url    string
	client http.Client
}

func (c *client) doRequest(
	ctx context.Context,
	method, path string,
	body, out interface{},
) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); !ok {
		// permission prompts block on user interaction, give them room
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
	}
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req, err := http.NewRequestWithContext(ctx,
		method, c.url+path, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "push: error preparing HTTP request")
	}
	req.Header.Set("Content-Type", "application/json")

	rsp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "push: bridge request failed")
	}
	defer rsp.Body.Close()
	if rsp.StatusCode >= 300 {
		return errors.Errorf(
			"push: unexpected HTTP status from notification bridge: %s",
			rsp.Status,
		)
	}
	if out != nil {
		if err := json.NewDecoder(rsp.Body).Decode(out); err != nil {
			return errors.Wrap(err, "push: error parsing bridge response")
		}
	}
	return nil
}

func (c *client) GetDeviceProfile(ctx context.Context) (*DeviceProfile, error) {
	profile := &DeviceProfile{}
	err := c.doRequest(ctx, http.MethodGet, deviceURI, nil, profile)
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (c *client) GetPermissions(ctx context.Context) (string, error) {
	var rsp struct {
		Status string `json:"status"`
	}
	err := c.doRequest(ctx, http.MethodGet, permissionsURI, nil, &rsp)
	if err != nil {
		return "", err
	}
	return rsp.Status, nil
}

func (c *client) RequestPermissions(ctx context.Context) (string, error) {
	var rsp struct {
		Status string `json:"status"`
	}
	err := c.doRequest(ctx, http.MethodPost, requestPermissionsURI, nil, &rsp)
	if err != nil {
		return "", err
	}
	return rsp.Status, nil
}

func (c *client) GetPushToken(
	ctx context.Context,
	projectID string,
) (string, error) {
	body := map[string]string{
		"project_id": projectID,
	}
	var rsp struct {
		Token string `json:"token"`
	}
	err := c.doRequest(ctx, http.MethodPost, pushTokenURI, body, &rsp)
	if err != nil {
		return "", err
	}
	if rsp.Token == "" {
		return "", errors.New("push: bridge returned an empty push token")
	}
	return rsp.Token, nil
}
