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


package ingest

import "errors"

var (
	// ErrProviderRequired indicates no inference provider was supplied.
	ErrProviderRequired = errors.New("inference provider is required")

	// ErrPhotoRepositoryRequired indicates no photo repository was supplied.
	ErrPhotoRepositoryRequired = errors.New("photo repository is required")

	// ErrFetcherRequired indicates no blob fetcher was supplied.
	ErrFetcherRequired = errors.New("blob fetcher is required")

	// ErrNoPhotos indicates an ingestion call with no photo URLs.
	ErrNoPhotos = errors.New("no photos to ingest")
)
