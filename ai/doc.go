// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package ai provides abstractions for the inference services used in picsearch.
//
// This package defines interfaces for streamed chat completions and text
// embeddings. It follows the dependency inversion principle, allowing the
// search pipeline and ingestion logic to depend on abstractions rather than
// concrete inference clients.
//
// # Design Principles
//
// The package is designed around three key interfaces:
//
//   - Completer: Streams model output for a single prompt as a Fragments sequence
//   - Embedder: Generates vector embeddings from text
//   - InferenceProvider: Aggregates the services for convenient initialization
//
// # The Fragments Contract
//
// A streamed completion is exposed as a Fragments value: a finite,
// single-pass, non-restartable sequence of text fragments. Whoever receives a
// Fragments value owns it and must consume it exactly once — a drained
// sequence silently yields nothing on a second iteration. Callers that need
// both the individual fragments and the full text must accumulate while
// iterating rather than iterate twice.
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, etc.) return
// INTERFACE types to enforce abstraction and prevent accidental coupling to
// concrete implementations.
//
//	provider, err := openai.NewProvider(config)  // returns ai.InferenceProvider
//
// Test utility constructors (mock.NewMockCompleter, mock.NewMockEmbedder)
// return CONCRETE types to enable test assertions and behavior injection via
// the mock's public fields and methods (CallCount, script fields, Reset).
//
// # Usage Example
//
//	config := ai.DefaultConfig()
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	frags, err := provider.Completer().Complete(ctx, ai.CompletionRequest{Prompt: "describe this"})
//	vector, err := provider.Embedder().EmbedText(ctx, "red bicycle near a lake")
package ai
