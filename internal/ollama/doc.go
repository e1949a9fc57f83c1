// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama is a small client for a local Ollama server's streaming
// /api/chat endpoint. The reference backend uses it to generate replies.
//
// # Usage
//
//	client := ollama.NewClient(&ollama.Config{BaseURL: "http://127.0.0.1:11434"})
//	err := client.ChatStream(ctx, []ollama.Message{
//	    ollama.NewSystemMessage("You are DailyMind."),
//	    ollama.NewUserMessage("I can't focus today"),
//	}, func(chunk ollama.StreamChunk) error {
//	    fmt.Print(chunk.Content)
//	    return nil
//	})
//
// Ollama answers with newline-delimited JSON objects, one per token batch,
// ending with an object whose done field is true.
package ollama
