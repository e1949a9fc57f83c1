// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across the dailymind packages.
//
// # Key Functions
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync and rename
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe truncation with ellipsis
//   - StringWidth: terminal display width (wide runes count as two cells)
//   - MaskEmail: hides the local part of an address for logs and status lines
//
// # Usage
//
//	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
//		return err
//	}
//	logger.Info("identity loaded", "email", util.MaskEmail(email))
package util
