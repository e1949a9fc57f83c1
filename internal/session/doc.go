// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session is the chat session controller.
//
// A Controller owns the transcript and the quota counter for the life of the
// process and routes every user intent through the same order:
//
//  1. trim; empty input is ignored
//  2. refuse while a reply is still streaming (OutcomeBusy)
//  3. require an email; without one open the capture flow and stop
//  4. consult the quota gate and the lock; when denied, lock and stop
//  5. append the user entry and clear the input
//  6. increment and persist the counter, before the request goes out
//  7. dispatch; a 403 locks regardless of the local counter
//  8. on other failures append a notice, keeping the counter as is
//  9. stream the reply into a fresh assistant entry
//  10. re-check the gate and lock if the limit is now reached
//
// # Key Types
//
//   - Controller: the orchestrator; Send, SaveEmail, VerifyPremium, Start
//   - Surface: the UI capability set the controller drives
//   - Outcome: what a Send did, for callers that need more than the transcript
//
// Send blocks until the reply finishes. UIs run it off their event loop and
// receive progress through Surface calls, which arrive on the goroutine that
// called Send and never while the controller's own lock is held.
package session
