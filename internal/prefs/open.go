// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package prefs

import (
	"fmt"
	"strings"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Open builds the store named by backend. path is ignored for memory.
func Open(backend, path string) (Store, error) {
	switch strings.ToLower(backend) {
	case BackendFile, "":
		return OpenFileStore(path)
	case BackendSQLite:
		return OpenSQLiteStore(path)
	case BackendMemory:
		return NewMemoryStore(nil), nil
	default:
		return nil, fmt.Errorf("prefs: unknown backend %q", backend)
	}
}
