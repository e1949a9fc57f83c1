// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package quota decides whether the user may send another free message and
// holds the one-way lock that follows a denial.
//
// MayProceed is a pure function of the counter and the effective premium
// flag. Lock is the only state here; Engage reports true exactly once per
// Unlocked to Locked transition so callers can attach the notice and upgrade
// affordance without ever duplicating them.
package quota
