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

package file

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/smarthelmet/deviceregistry/model"
	"github.com/smarthelmet/deviceregistry/store"
)

// Every persisted auth entry carries this filename prefix so that
// ClearAuthData can wipe them without tracking an inventory.
const authFilePrefix = "auth-"

const sessionFileName = authFilePrefix + "session.json"

// DataStore is the file-backed session store. One directory per
// install, session state in a 0600 JSON file.
type DataStore struct {
	dir string
}

// SetupDataStore creates the storage directory if needed and returns
// a new DataStore over it.
func SetupDataStore(dir string) (*DataStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.Wrap(err, "store: failed to create storage directory")
	}
	return &DataStore{dir: dir}, nil
}

func (ds *DataStore) SaveSession(
	ctx context.Context,
	sess *model.Session,
) error {
	if err := sess.Validate(); err != nil {
		return errors.Wrap(err, "store: refusing to persist invalid session")
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "store: failed to serialize session")
	}
	path := filepath.Join(ds.dir, sessionFileName)
	tmp := path + ".tmp"
	if err := ioutil.WriteFile(tmp, raw, 0600); err != nil {
		return errors.Wrap(err, "store: failed to write session file")
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrap(err, "store: failed to write session file")
	}
	return nil
}

func (ds *DataStore) LoadSession(ctx context.Context) (*model.Session, error) {
	raw, err := ioutil.ReadFile(filepath.Join(ds.dir, sessionFileName))
	if os.IsNotExist(err) {
		return nil, store.ErrSessionNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "store: failed to read session file")
	}
	sess := &model.Session{}
	if err := json.Unmarshal(raw, sess); err != nil {
		return nil, errors.Wrap(err, "store: failed to parse session file")
	}
	return sess, nil
}

func (ds *DataStore) ClearAuthData(ctx context.Context) error {
	entries, err := ioutil.ReadDir(ds.dir)
	if os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return errors.Wrap(err, "store: failed to list storage directory")
	}
	for _, entry := range entries {
		if entry.IsDir() ||
			!strings.HasPrefix(entry.Name(), authFilePrefix) {
			continue
		}
		err := os.Remove(filepath.Join(ds.dir, entry.Name()))
		if err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err,
				"store: failed to remove auth entry %q", entry.Name())
		}
	}
	return nil
}

func (ds *DataStore) Close() error {
	return nil
}
