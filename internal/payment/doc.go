// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package payment verifies Paystack transactions and derives license keys.
//
// Usage:
//
//	v := payment.NewVerifier(&payment.Config{SecretKey: secret})
//	email, err := v.Verify(ctx, reference)
//	if err == nil {
//		key := payment.License(email, salt)
//	}
package payment
