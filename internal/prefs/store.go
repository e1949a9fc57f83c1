// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package prefs

import (
	"errors"
	"fmt"
	"strconv"
)

// Persisted keys. Values are always strings: counts are base-10 integers and
// flags are "true" or "false".
const (
	KeyEmail        = "email"
	KeyMessageCount = "messageCount"
	KeyIsPremium    = "isPremium"
)

// Keys lists every key the client writes, in a stable order.
var Keys = []string{KeyEmail, KeyMessageCount, KeyIsPremium}

// ErrEmptyKey is returned when a caller passes an empty key.
var ErrEmptyKey = errors.New("prefs: empty key")

// Store is the get/set/remove contract shared by all backends.
// Get reports ok=false for an absent key; that is not an error.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Remove(key string) error
}

// Closer is implemented by backends holding an OS resource.
type Closer interface {
	Close() error
}

// Close releases s if the backend needs it.
func Close(s Store) error {
	if c, ok := s.(Closer); ok {
		return c.Close()
	}
	return nil
}

// GetInt reads key as an integer. An unparsable value is reported as absent,
// matching how a browser treats a corrupted counter: it starts again at zero.
func GetInt(s Store, key string) (int, bool, error) {
	raw, ok, err := s.Get(key)
	if err != nil || !ok {
		return 0, false, err
	}
	n, convErr := strconv.Atoi(raw)
	if convErr != nil || n < 0 {
		return 0, false, nil
	}
	return n, true, nil
}

// SetInt stores n in base 10.
func SetInt(s Store, key string, n int) error {
	return s.Set(key, strconv.Itoa(n))
}

// GetBool reads key as a flag. Only the exact string "true" is true.
func GetBool(s Store, key string) (bool, error) {
	raw, ok, err := s.Get(key)
	if err != nil || !ok {
		return false, err
	}
	return raw == "true", nil
}

// SetBool stores "true" or "false".
func SetBool(s Store, key string, v bool) error {
	return s.Set(key, strconv.FormatBool(v))
}

// Reset removes every client key from s and returns the first failure.
func Reset(s Store) error {
	var first error
	for _, k := range Keys {
		if err := s.Remove(k); err != nil && first == nil {
			first = fmt.Errorf("remove %s: %w", k, err)
		}
	}
	return first
}

func checkKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return nil
}
