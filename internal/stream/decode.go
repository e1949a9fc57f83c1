// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"mime"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// DefaultCharset is assumed when a response does not declare one.
const DefaultCharset = "utf-8"

// EncodingFor resolves the charset parameter of contentType. It returns the
// canonical charset name and whether the declared value was recognised; an
// unrecognised or missing charset yields UTF-8.
func EncodingFor(contentType string) (encoding.Encoding, string, bool) {
	charset := DefaultCharset
	if contentType != "" {
		if _, params, err := mime.ParseMediaType(contentType); err == nil {
			if cs := strings.TrimSpace(params["charset"]); cs != "" {
				charset = cs
			}
		}
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return unicode.UTF8, DefaultCharset, false
	}
	name, err := htmlindex.Name(enc)
	if err != nil {
		name = charset
	}
	return enc, name, true
}
