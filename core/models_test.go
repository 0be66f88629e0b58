package core

import (
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "same content produces same ID",
			content: "https://photos.example.com/a1b2c3.jpg",
		},
		{
			name:    "empty string",
			content: "",
		},
		{
			name:    "long content",
			content: "https://photos.example.com/albums/2024/summer/really-long-object-key-for-a-photo.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("https://photos.example.com/1.jpg")
	id2 := IDFromContent("https://photos.example.com/2.jpg")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestSearchRequest_HasImage(t *testing.T) {
	textOnly := &SearchRequest{Id: "s1", Query: "red bicycle near a lake"}
	if textOnly.HasImage() {
		t.Errorf("HasImage() = true for text-only request")
	}

	withImage := &SearchRequest{Id: "s2", Query: "same place", ImageURL: "https://photos.example.com/q.jpg"}
	if !withImage.HasImage() {
		t.Errorf("HasImage() = false for request with image URL")
	}
}
