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


package core

import "fmt"

// ValidateSearchRequest validates a SearchRequest according to domain rules.
//
// Validation rules:
//   - Id must not be empty
//   - Query must not be empty (an image alone is not a valid search)
//
// NOT validated:
//   - ImageURL (optional; an empty value means a text-only search)
func ValidateSearchRequest(request *SearchRequest) error {
	if request == nil {
		return fmt.Errorf("%w: request is nil", ErrInvalidSearchRequest)
	}

	if request.Id == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSearchRequest, ErrEmptySearchId)
	}

	if request.Query == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSearchRequest, ErrEmptyQuery)
	}

	return nil
}

// ValidatePhoto validates a Photo according to domain rules.
//
// Validation rules:
//   - URL must not be empty
//
// NOT validated (populated by ingestion processors):
//   - Analysis (empty until the image-analysis stage runs)
//   - Vector (empty until the analysis is embedded)
//   - Id (derived from URL; 0 only for the empty URL, which is rejected anyway)
func ValidatePhoto(photo *Photo) error {
	if photo == nil {
		return fmt.Errorf("%w: photo is nil", ErrInvalidPhoto)
	}

	if photo.URL == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPhoto, ErrEmptyPhotoURL)
	}

	return nil
}

// ValidateMatchRecord validates a MatchRecord according to domain rules.
//
// Validation rules:
//   - Rank must not be negative
//   - IsBestMatch must equal (Rank == 0)
//   - SearchResultId must not be empty (match rows reference the result row)
func ValidateMatchRecord(record *MatchRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidMatchRecord)
	}

	if record.SearchResultId == "" {
		return fmt.Errorf("%w: search_result_id cannot be empty", ErrInvalidMatchRecord)
	}

	if record.Rank < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidMatchRecord, ErrNegativeRank)
	}

	if record.IsBestMatch != (record.Rank == 0) {
		return fmt.Errorf("%w: %w", ErrInvalidMatchRecord, ErrBestMatchRank)
	}

	return nil
}
