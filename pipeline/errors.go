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


package pipeline

import "errors"

var (
	// ErrProviderRequired indicates no inference provider was supplied.
	ErrProviderRequired = errors.New("inference provider is required")

	// ErrPhotoRepositoryRequired indicates no photo repository was supplied.
	ErrPhotoRepositoryRequired = errors.New("photo repository is required")

	// ErrSearchRepositoryRequired indicates no search repository was supplied.
	ErrSearchRepositoryRequired = errors.New("search repository is required")

	// ErrChatRepositoryRequired indicates no chat repository was supplied.
	ErrChatRepositoryRequired = errors.New("chat repository is required")

	// ErrFetcherRequired indicates an image search was requested without a
	// blob fetcher to download the image.
	ErrFetcherRequired = errors.New("blob fetcher is required for image search")

	// ErrUpstream wraps a failed inference or retrieval call. Upstream
	// failures are terminal; the run aborts with a single error event.
	ErrUpstream = errors.New("upstream call failed")

	// ErrSearchResultPersistence wraps a failure to create the search result
	// row. Nothing downstream can be attributed to the run without it, so
	// this failure is terminal.
	ErrSearchResultPersistence = errors.New("failed to create search result")
)
