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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/mendersoftware/go-lib-micro/config"
	"github.com/urfave/cli"

	"github.com/smarthelmet/deviceregistry/app"
	"github.com/smarthelmet/deviceregistry/client/auth"
	"github.com/smarthelmet/deviceregistry/client/push"
	"github.com/smarthelmet/deviceregistry/client/registry"
	dconfig "github.com/smarthelmet/deviceregistry/config"
	"github.com/smarthelmet/deviceregistry/model"
	"github.com/smarthelmet/deviceregistry/server"
	store "github.com/smarthelmet/deviceregistry/store/file"
)

var Version string = "unknown"

func main() {
	doMain(os.Args)
}

func doMain(args []string) {
	var configPath string

	app := &cli.App{
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name: "config",
				Usage: "Configuration `FILE`. " +
					"Supports JSON, TOML, YAML and HCL " +
					"formatted configs.",
				Value:       "config.yaml",
				Destination: &configPath,
			},
		},
		Commands: []cli.Command{
			{
				Name:   "daemon",
				Usage:  "Run the session daemon and the local status API",
				Action: cmdDaemon,
			},
			{
				Name:   "login",
				Usage:  "Sign in and persist the session",
				Action: cmdLogin,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "email",
						Usage: "Account email address.",
					},
					&cli.StringFlag{
						Name:  "password",
						Usage: "Account password.",
					},
				},
			},
			{
				Name:   "logout",
				Usage:  "Sign out and clear the persisted session",
				Action: cmdLogout,
			},
			{
				Name:   "health",
				Usage:  "Probe the backend health endpoint",
				Action: cmdHealth,
			},
			{
				Name:  "devices",
				Usage: "Operate on the device registry",
				Subcommands: []cli.Command{
					{
						Name:   "list",
						Usage:  "List the registered devices",
						Action: cmdDeviceList,
					},
					{
						Name:      "register",
						Usage:     "Register a device",
						ArgsUsage: "<product-id> <device-name>",
						Action:    cmdDeviceRegister,
					},
					{
						Name:      "unregister",
						Usage:     "Unregister a device by UUID",
						ArgsUsage: "<device-uuid>",
						Action:    cmdDeviceUnregister,
					},
					{
						Name:      "rename",
						Usage:     "Rename a device",
						ArgsUsage: "<device-uuid> <name>",
						Action:    cmdDeviceRename,
					},
					{
						Name:      "info",
						Usage:     "Show the device state snapshot",
						ArgsUsage: "<device-uuid>",
						Action:    cmdDeviceInfo,
					},
					{
						Name:      "logs",
						Usage:     "Show the device event and property history",
						ArgsUsage: "<device-uuid>",
						Action:    cmdDeviceLogs,
					},
					{
						Name:      "eflara",
						Usage:     "Configure eFlara forwarding for a device",
						ArgsUsage: "<device-uuid> <address>",
						Action:    cmdDeviceEFlara,
						Flags: []cli.Flag{
							&cli.BoolFlag{
								Name:  "disable",
								Usage: "Disable forwarding instead of enabling it.",
							},
						},
					},
				},
			},
			{
				Name:   "delete-account",
				Usage:  "Delete the account and all of its devices. Irreversible.",
				Action: cmdDeleteAccount,
			},
		},
	}
	app.Usage = "Device Registry"
	app.Version = Version

	app.Before = func(args *cli.Context) error {
		err := config.FromConfigFile(configPath, dconfig.Defaults)
		if err != nil {
			return cli.NewExitError(
				fmt.Sprintf("error loading configuration: %s", err),
				1)
		}

		// Enable setting config values by environment variables
		config.Config.SetEnvPrefix("DEVICEREGISTRY")
		config.Config.AutomaticEnv()
		config.Config.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

		return nil
	}

	err := app.Run(args)
	if err != nil {
		log.Fatal(err)
	}
}

func storagePath(conf config.Reader) (string, error) {
	if path := conf.GetString(dconfig.SettingStoragePath); path != "" {
		return path, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "deviceregistry"), nil
}

// setupProvider is the composition root: every collaborator is built
// here and injected explicitly.
func setupProvider(withRegistrar bool) (*app.SessionProvider, error) {
	conf := config.Config

	path, err := storagePath(conf)
	if err != nil {
		return nil, err
	}
	dataStore, err := store.SetupDataStore(path)
	if err != nil {
		return nil, err
	}
	authClient := auth.NewClient(
		conf.GetString(dconfig.SettingAuthURL),
		conf.GetString(dconfig.SettingAuthAPIKey),
	)
	registryURL := conf.GetString(dconfig.SettingRegistryURL)
	registryOpts := []registry.ClientOptions{{
		Retries: conf.GetInt(dconfig.SettingHTTPRetries),
	}}

	var registrar *app.TokenRegistrar
	if withRegistrar {
		bridge := push.NewClient(conf.GetString(dconfig.SettingBridgeURL))
		registrar = app.NewTokenRegistrar(
			bridge,
			registryURL,
			conf.GetString(dconfig.SettingPushProjectID),
			app.TokenRegistrarConfig{RegistryOptions: registryOpts},
		)
	}
	return app.NewSessionProvider(
		authClient, dataStore, registrar, registryURL,
		app.SessionProviderConfig{RegistryOptions: registryOpts},
	), nil
}

// sessionClient bootstraps the provider from the persisted session and
// returns the registry client for one-shot commands.
func sessionClient(ctx context.Context) (registry.Client, error) {
	provider, err := setupProvider(false)
	if err != nil {
		return nil, err
	}
	if err := provider.Bootstrap(ctx); err != nil {
		return nil, err
	}
	client, err := provider.Client()
	if err != nil {
		return nil, cli.NewExitError(
			"not logged in, run 'login' first", 1)
	}
	return client, nil
}

func printJSON(v interface{}) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(raw))
	return nil
}

func deviceUUIDArg(args *cli.Context) (string, error) {
	deviceUUID := args.Args().First()
	if _, err := uuid.Parse(deviceUUID); err != nil {
		return "", cli.NewExitError(
			fmt.Sprintf("invalid device uuid %q: %s", deviceUUID, err), 1)
	}
	return deviceUUID, nil
}

func cmdDaemon(args *cli.Context) error {
	provider, err := setupProvider(true)
	if err != nil {
		return err
	}
	return server.InitAndRun(config.Config, provider)
}

func cmdLogin(args *cli.Context) error {
	provider, err := setupProvider(true)
	if err != nil {
		return err
	}
	err = provider.SignIn(context.Background(),
		args.String("email"), args.String("password"))
	if err != nil {
		return err
	}
	fmt.Println("logged in")
	return nil
}

func cmdLogout(args *cli.Context) error {
	provider, err := setupProvider(false)
	if err != nil {
		return err
	}
	ctx := context.Background()
	if err := provider.Bootstrap(ctx); err != nil {
		return err
	}
	provider.SignOut(ctx)
	fmt.Println("logged out")
	return nil
}

func cmdHealth(args *cli.Context) error {
	client, err := sessionClient(context.Background())
	if err != nil {
		return err
	}
	health, err := client.CheckHealth(context.Background())
	if err != nil {
		return err
	}
	return printJSON(health)
}

func cmdDeviceList(args *cli.Context) error {
	client, err := sessionClient(context.Background())
	if err != nil {
		return err
	}
	devices, err := client.ListDevices(context.Background())
	if err != nil {
		return err
	}
	return printJSON(devices)
}

func cmdDeviceRegister(args *cli.Context) error {
	client, err := sessionClient(context.Background())
	if err != nil {
		return err
	}
	device, err := client.RegisterDevice(context.Background(),
		model.DeviceRegistration{
			ProductID:  args.Args().Get(0),
			DeviceName: args.Args().Get(1),
		})
	if err != nil {
		return err
	}
	return printJSON(device)
}

func cmdDeviceUnregister(args *cli.Context) error {
	deviceUUID, err := deviceUUIDArg(args)
	if err != nil {
		return err
	}
	client, err := sessionClient(context.Background())
	if err != nil {
		return err
	}
	status, err := client.UnregisterDeviceByUUID(
		context.Background(), deviceUUID)
	if err != nil {
		return err
	}
	return printJSON(status)
}

func cmdDeviceRename(args *cli.Context) error {
	deviceUUID, err := deviceUUIDArg(args)
	if err != nil {
		return err
	}
	client, err := sessionClient(context.Background())
	if err != nil {
		return err
	}
	status, err := client.RenameDevice(context.Background(),
		deviceUUID, args.Args().Get(1))
	if err != nil {
		return err
	}
	return printJSON(status)
}

func cmdDeviceInfo(args *cli.Context) error {
	deviceUUID, err := deviceUUIDArg(args)
	if err != nil {
		return err
	}
	client, err := sessionClient(context.Background())
	if err != nil {
		return err
	}
	info, err := client.GetDeviceInfo(context.Background(), deviceUUID)
	if err != nil {
		return err
	}
	return printJSON(info)
}

func cmdDeviceLogs(args *cli.Context) error {
	deviceUUID, err := deviceUUIDArg(args)
	if err != nil {
		return err
	}
	client, err := sessionClient(context.Background())
	if err != nil {
		return err
	}
	logs, err := client.GetDeviceLogs(context.Background(), deviceUUID)
	if err != nil {
		return err
	}
	return printJSON(logs)
}

func cmdDeviceEFlara(args *cli.Context) error {
	deviceUUID, err := deviceUUIDArg(args)
	if err != nil {
		return err
	}
	client, err := sessionClient(context.Background())
	if err != nil {
		return err
	}
	err = client.SetEFlaraConfig(context.Background(), deviceUUID,
		model.EFlaraConfig{
			Address: args.Args().Get(1),
			Enabled: !args.Bool("disable"),
		})
	if err != nil {
		return err
	}
	fmt.Println("eFlara configuration updated")
	return nil
}

func cmdDeleteAccount(args *cli.Context) error {
	client, err := sessionClient(context.Background())
	if err != nil {
		return err
	}
	status, err := client.DeleteAccount(context.Background())
	if err != nil {
		return err
	}
	return printJSON(status)
}
