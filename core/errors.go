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

import "errors"

// Domain validation errors
var (
	// ErrInvalidSearchRequest indicates a SearchRequest failed validation.
	ErrInvalidSearchRequest = errors.New("invalid search request")

	// ErrInvalidPhoto indicates a Photo failed validation.
	ErrInvalidPhoto = errors.New("invalid photo")

	// ErrInvalidMatchRecord indicates a MatchRecord failed validation.
	ErrInvalidMatchRecord = errors.New("invalid match record")

	// ErrEmptySearchId indicates the search Id field is empty.
	ErrEmptySearchId = errors.New("search id cannot be empty")

	// ErrEmptyQuery indicates the query text field is empty.
	ErrEmptyQuery = errors.New("query text cannot be empty")

	// ErrEmptyPhotoURL indicates the photo URL field is empty.
	ErrEmptyPhotoURL = errors.New("photo url cannot be empty")

	// ErrNegativeRank indicates a match rank is negative.
	ErrNegativeRank = errors.New("rank cannot be negative")

	// ErrBestMatchRank indicates is_best_match disagrees with rank 0.
	ErrBestMatchRank = errors.New("is_best_match must hold exactly when rank is 0")
)
