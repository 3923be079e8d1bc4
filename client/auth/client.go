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
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/mendersoftware/go-lib-micro/log"
	"github.com/pkg/errors"

	"github.com/smarthelmet/deviceregistry/model"
	"github.com/smarthelmet/deviceregistry/utils"
)

// auth client errors
var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrInvalidGrant       = errors.New("auth: refresh token rejected")
	ErrInternalError      = errors.New("auth: internal error")
)

const (
	tokenURI  = "/auth/v1/token"
	logoutURI = "/auth/v1/logout"

	grantPassword     = "password"
	grantRefreshToken = "refresh_token"

	headerAPIKey = "apikey"
)

const defaultTimeout = time.Duration(10) * time.Second

// Client is the client of the external auth provider. It owns nothing
// beyond the wire exchange: sessions it returns are handed to the
// session provider, which owns their lifecycle.
//
//go:generate ../../utils/mockgen.sh
type Client interface {
	SignIn(ctx context.Context, email, password string) (*model.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*model.Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

type ClientOptions struct {
	Client *http.Client
	Clock  utils.Clock
}

// NewClient returns a new auth client. The apiKey is the provider's
// public (anon) API key sent alongside every request.
func NewClient(url, apiKey string, opts ...ClientOptions) Client {
	var clientOpts = ClientOptions{
		Client: &http.Client{},
		Clock:  utils.RealClock{},
	}
	for _, opt := range opts {
		if opt.Client != nil {
			clientOpts.Client = opt.Client
		}
		if opt.Clock != nil {
			clientOpts.Clock = opt.Clock
		}
	}
	return &client{
		url:    strings.TrimSuffix(url, "/"),
		apiKey: apiKey,
		client: *clientOpts.Client,
		clock:  clientOpts.Clock,
	}
}

type client struct {
	url    string
	apiKey string
	client http.Client
	clock  utils.Clock
}

// tokenResponse is the provider's token grant response
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

// errorResponse is the provider's error shape
type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
}

func (c *client) SignIn(
	ctx context.Context,
	email, password string,
) (*model.Session, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}
	return c.tokenGrant(ctx, grantPassword, body)
}

func (c *client) Refresh(
	ctx context.Context,
	refreshToken string,
) (*model.Session, error) {
	body := map[string]string{
		"refresh_token": refreshToken,
	}
	return c.tokenGrant(ctx, grantRefreshToken, body)
}

func (c *client) tokenGrant(
	ctx context.Context,
	grantType string,
	body map[string]string,
) (*model.Session, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
	}
	payload, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx,
		http.MethodPost,
		c.url+tokenURI+"?grant_type="+grantType,
		bytes.NewReader(payload),
	)
	if err != nil {
		return nil, errors.Wrap(err, "auth: error preparing HTTP request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerAPIKey, c.apiKey)

	rsp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "auth: token request failed")
	}
	defer rsp.Body.Close()

	if rsp.StatusCode >= http.StatusBadRequest {
		var authErr errorResponse
		_ = json.NewDecoder(rsp.Body).Decode(&authErr)
		switch {
		case rsp.StatusCode == http.StatusBadRequest &&
			grantType == grantRefreshToken:
			return nil, ErrInvalidGrant
		case rsp.StatusCode == http.StatusBadRequest ||
			rsp.StatusCode == http.StatusUnauthorized:
			return nil, ErrInvalidCredentials
		default:
			return nil, errors.Errorf(
				"auth: unexpected HTTP status from auth provider: %s",
				rsp.Status,
			)
		}
	}

	var token tokenResponse
	if err := json.NewDecoder(rsp.Body).Decode(&token); err != nil {
		return nil, errors.Wrap(err, "auth: error parsing token response")
	}
	sess := &model.Session{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		RefreshToken: token.RefreshToken,
		UserID:       token.User.ID,
		Email:        token.User.Email,
	}
	if token.ExpiresIn > 0 {
		sess.ExpiresAt = c.clock.Now().
			Add(time.Duration(token.ExpiresIn) * time.Second)
	}
	if err := sess.Validate(); err != nil {
		return nil, errors.Wrap(err, "auth: invalid session in token response")
	}
	return sess, nil
}

// SignOut revokes the session server-side. Callers must clear local
// state regardless of the outcome.
func (c *client) SignOut(ctx context.Context, accessToken string) error {
	l := log.FromContext(ctx)

	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx,
		http.MethodPost, c.url+logoutURI, nil)
	if err != nil {
		l.Error(errors.Wrap(err, "auth: error preparing sign-out request"))
		return ErrInternalError
	}
	req.Header.Set(headerAPIKey, c.apiKey)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	rsp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "auth: sign-out request failed")
	}
	defer rsp.Body.Close()
	if rsp.StatusCode < 300 {
		return nil
	}
	return errors.Errorf(
		"auth: unexpected HTTP status from auth provider: %s", rsp.Status)
}
