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


// Package openai provides inference service implementations using OpenAI-compatible APIs.
//
// This package implements the ai.InferenceProvider interface using the
// langchaingo library to communicate with OpenAI or OpenAI-compatible services
// (such as Ollama, LocalAI, vLLM, or an OpenAI-compatible Gemini endpoint).
//
// Completions are streamed: each Complete call returns an ai.Fragments
// sequence fed by the service's chunked response, so callers can forward
// fragments to their own consumers as they arrive.
//
// # Usage
//
//	config := ai.NewConfig(
//	    ai.WithHost("http://localhost:11434"),  // /v1 added automatically
//	    ai.WithCompletionModel("gpt-4o-mini"),
//	    ai.WithEmbeddingModel("text-embedding-3-small"),
//	)
//
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	frags, err := provider.Completer().Complete(ctx, ai.CompletionRequest{Prompt: "..."})
//	vector, err := provider.Embedder().EmbedText(ctx, "red bicycle near a lake")
package openai
