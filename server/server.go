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

package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sys/unix"

	"github.com/mendersoftware/go-lib-micro/config"
	"github.com/mendersoftware/go-lib-micro/log"

	api "github.com/smarthelmet/deviceregistry/api/http"
	"github.com/smarthelmet/deviceregistry/app"
	dconfig "github.com/smarthelmet/deviceregistry/config"
)

// InitAndRun initializes the daemon and runs it: the session refresh
// loop plus the local status API. SIGUSR1 marks the process
// backgrounded (refresh suspended), SIGUSR2 foregrounded.
func InitAndRun(conf config.Reader, provider *app.SessionProvider) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Setup(conf.GetBool(dconfig.SettingDebugLog))
	l := log.FromContext(ctx)

	if err := provider.Bootstrap(ctx); err != nil {
		return err
	}
	go func() {
		if err := provider.Run(ctx); err != nil && err != context.Canceled {
			l.Errorf("session refresh loop: %s", err)
		}
	}()

	var listen = conf.GetString(dconfig.SettingListen)
	router, err := api.NewRouter(provider)
	if err != nil {
		l.Fatal(err)
	}
	srv := &http.Server{
		Addr:    listen,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, unix.SIGINT, unix.SIGTERM)
	appState := make(chan os.Signal, 1)
	signal.Notify(appState, unix.SIGUSR1, unix.SIGUSR2)

Loop:
	for {
		select {
		case sig := <-appState:
			foreground := sig == unix.SIGUSR2
			l.Infof("app state change, foreground: %v", foreground)
			provider.SetForeground(foreground)
		case <-quit:
			break Loop
		}
	}

	l.Info("Shutdown Server ...")

	ctxWithTimeout, cancelTimeout := context.WithTimeout(ctx, 5*time.Second)
	defer cancelTimeout()
	if err := srv.Shutdown(ctxWithTimeout); err != nil {
		l.Fatal("Server Shutdown: ", err)
	}

	return nil
}
