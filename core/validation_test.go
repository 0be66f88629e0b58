package core

import (
	"errors"
	"testing"
)

func TestValidateSearchRequest(t *testing.T) {
	tests := []struct {
		name    string
		request *SearchRequest
		wantErr error
	}{
		{
			name:    "valid text-only request",
			request: &SearchRequest{Id: "b5c7e1f0", Query: "red bicycle near a lake"},
			wantErr: nil,
		},
		{
			name:    "valid request with image",
			request: &SearchRequest{Id: "b5c7e1f0", Query: "same spot", ImageURL: "https://photos.example.com/q.jpg"},
			wantErr: nil,
		},
		{
			name:    "nil request",
			request: nil,
			wantErr: ErrInvalidSearchRequest,
		},
		{
			name:    "empty id",
			request: &SearchRequest{Query: "red bicycle"},
			wantErr: ErrEmptySearchId,
		},
		{
			name:    "empty query",
			request: &SearchRequest{Id: "b5c7e1f0"},
			wantErr: ErrEmptyQuery,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSearchRequest(tt.request)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateSearchRequest() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateSearchRequest() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidatePhoto(t *testing.T) {
	tests := []struct {
		name    string
		photo   *Photo
		wantErr error
	}{
		{
			name:    "valid photo",
			photo:   &Photo{Id: IDFromContent("https://photos.example.com/p.jpg"), URL: "https://photos.example.com/p.jpg"},
			wantErr: nil,
		},
		{
			name:    "valid photo without analysis or vector",
			photo:   &Photo{URL: "https://photos.example.com/p.jpg", Analysis: "", Vector: nil},
			wantErr: nil,
		},
		{
			name:    "nil photo",
			photo:   nil,
			wantErr: ErrInvalidPhoto,
		},
		{
			name:    "empty url",
			photo:   &Photo{Analysis: "a lake"},
			wantErr: ErrEmptyPhotoURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePhoto(tt.photo)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidatePhoto() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidatePhoto() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateMatchRecord(t *testing.T) {
	tests := []struct {
		name    string
		record  *MatchRecord
		wantErr error
	}{
		{
			name:    "valid best match",
			record:  &MatchRecord{SearchResultId: "r1", Rank: 0, IsBestMatch: true},
			wantErr: nil,
		},
		{
			name:    "valid non-best match",
			record:  &MatchRecord{SearchResultId: "r1", Rank: 2, IsBestMatch: false},
			wantErr: nil,
		},
		{
			name:    "nil record",
			record:  nil,
			wantErr: ErrInvalidMatchRecord,
		},
		{
			name:    "missing search result id",
			record:  &MatchRecord{Rank: 0, IsBestMatch: true},
			wantErr: ErrInvalidMatchRecord,
		},
		{
			name:    "negative rank",
			record:  &MatchRecord{SearchResultId: "r1", Rank: -1},
			wantErr: ErrNegativeRank,
		},
		{
			name:    "best match flag on non-zero rank",
			record:  &MatchRecord{SearchResultId: "r1", Rank: 1, IsBestMatch: true},
			wantErr: ErrBestMatchRank,
		},
		{
			name:    "missing best match flag on rank 0",
			record:  &MatchRecord{SearchResultId: "r1", Rank: 0, IsBestMatch: false},
			wantErr: ErrBestMatchRank,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMatchRecord(tt.record)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateMatchRecord() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateMatchRecord() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
