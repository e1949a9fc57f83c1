// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server is the DailyMind reference backend: the HTTP API the
// terminal client talks to.
//
// # Endpoints
//
//   - POST /chat-stream      - charge one message and stream a reply as text/plain
//   - POST /check-premium    - {"email"} -> {"premium": bool}
//   - GET  /upgrade          - 302 to the payment page
//   - GET  /payment-success  - verify a Paystack reference and unlock premium
//   - GET  /admin/stats      - account totals
//   - GET  /health           - liveness
//
// Replies come from a Responder. EchoResponder streams the prompt back word
// by word; OllamaResponder forwards to a local Ollama model.
//
// # Usage
//
//	store, _ := accounts.Open("dailymind.db")
//	srv := server.New(server.Options{
//		Config:    server.ConfigFrom(cfg.Server),
//		Accounts:  store,
//		Payments:  payment.NewVerifier(&payment.Config{SecretKey: secret}),
//		Responder: server.NewEchoResponder(0),
//		Logger:    logger,
//	})
//	http.ListenAndServe(":5000", srv.Handler())
package server
