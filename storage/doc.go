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


// Package storage provides the storage abstraction layer for picsearch.
//
// This package defines repository interfaces that decouple storage
// implementation from the search pipeline. Two backends are provided:
//
//   - storage/badger: embedded BadgerDB backend with a brute-force cosine
//     scan, suitable for local single-node deployments and tests
//   - storage/postgres: PostgreSQL backend using pgvector for similarity
//     search, suitable for production deployments
//
// # Constructor Return Type Pattern
//
// This package follows a strict "return interface" pattern for all public
// constructors to enforce abstraction and enable multiple storage backend
// implementations:
//
//	photos, err := badger.NewPhotoRepository(backend)  // returns storage.PhotoRepository
//
// Internal package constructors may return concrete types since they're only
// used within the implementation package.
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//
//   - PhotoRepository: photo records plus vector similarity search
//   - SearchRepository: search, search-result, and match rows
//   - ChatRepository: per-match conversation history
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support concurrent
// access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation and timeout
// support.
package storage
