// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package identity owns the email, the persisted message counter and the
// premium flag, and reconciles the locally cached premium hint with the
// server's verdict.
//
// Policy: an email is mandatory before the first send. There is no guest
// token and no deferred capture.
//
// Until a server check completes in this process, EffectivePremium returns
// the cached hint so a premium user does not see a lock flicker on start.
// From the first completed check on it returns the server value only. A
// failed check (network, status, decode) changes nothing and is reported as
// a retryable ErrEntitlementCheck; it is never read as "not premium".
package identity
