// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package accounts stores the reference backend's per-email accounts in
// SQLite: subscription, daily message counter, last-used day and license key.
//
// The daily counter is the server's own quota truth. It resets the first time
// an account is used on a new calendar day.
package accounts
