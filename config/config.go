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

package config

import (
	"github.com/mendersoftware/go-lib-micro/config"
)

const (
	// SettingListen is the config key for the local status API listen address
	SettingListen = "listen"
	// SettingListenDefault is the default value for the listen address
	SettingListenDefault = "127.0.0.1:9098"

	// SettingRegistryURL is the config key for the device registry backend URL
	SettingRegistryURL = "registry_url"
	// SettingRegistryURLDefault is the default value for the registry URL
	SettingRegistryURLDefault = "https://bbsmart.smarthelmet.pl"

	// SettingAuthURL is the config key for the auth provider URL
	SettingAuthURL = "auth_url"
	// SettingAuthURLDefault is the default value for the auth provider URL
	SettingAuthURLDefault = "https://zjqohfcskeirutsezxua.supabase.co"

	// SettingAuthAPIKey is the config key for the auth provider public API key
	SettingAuthAPIKey = "auth_api_key"

	// SettingBridgeURL is the config key for the notification bridge URL
	SettingBridgeURL = "bridge_url"
	// SettingBridgeURLDefault is the default value for the bridge URL
	SettingBridgeURLDefault = "http://127.0.0.1:9097"

	// SettingPushProjectID is the config key for the push project ID
	SettingPushProjectID = "push_project_id"
	// SettingPushProjectIDDefault is the default value for the push project ID
	SettingPushProjectIDDefault = "9ed84c7e-cc28-407c-bf83-d3081299a547"

	// SettingStoragePath is the config key for the session storage directory
	SettingStoragePath = "storage_path"
	// SettingStoragePathDefault is the default value for the storage directory
	SettingStoragePathDefault = ""

	// SettingHTTPRetries is the config key for the transport-failure
	// retry count of registry calls
	SettingHTTPRetries = "http_retries"
	// SettingHTTPRetriesDefault is the default value for the retry count
	SettingHTTPRetriesDefault = 0

	// SettingDebugLog is the config key for the turning on the debug log
	SettingDebugLog = "debug_log"
	// SettingDebugLogDefault is the default value for the debug log enabling
	SettingDebugLogDefault = false
)

var (
	// Defaults are the default configuration settings
	Defaults = []config.Default{
		{Key: SettingListen, Value: SettingListenDefault},
		{Key: SettingRegistryURL, Value: SettingRegistryURLDefault},
		{Key: SettingAuthURL, Value: SettingAuthURLDefault},
		{Key: SettingBridgeURL, Value: SettingBridgeURLDefault},
		{Key: SettingPushProjectID, Value: SettingPushProjectIDDefault},
		{Key: SettingStoragePath, Value: SettingStoragePathDefault},
		{Key: SettingHTTPRetries, Value: SettingHTTPRetriesDefault},
		{Key: SettingDebugLog, Value: SettingDebugLogDefault},
	}
)
