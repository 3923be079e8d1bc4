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

package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mendersoftware/go-lib-micro/accesslog"
	"github.com/mendersoftware/go-lib-micro/requestid"

	"github.com/smarthelmet/deviceregistry/app"
)

// API URLs served by the daemon-local HTTP router
const (
	APIURLAlive  = "/api/v1/alive"
	APIURLStatus = "/api/v1/status"
	APIURLHealth = "/api/v1/health"
)

// NewRouter returns the gin router of the local status API
func NewRouter(registryApp app.App) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	gin.DisableConsoleColor()

	router := gin.New()
	router.Use(accesslog.Middleware())
	router.Use(gin.Recovery())
	router.Use(requestid.Middleware())

	status := NewStatusController(registryApp)
	router.GET(APIURLAlive, status.Alive)
	router.GET(APIURLStatus, status.Status)
	router.GET(APIURLHealth, status.Health)

	return router, nil
}
