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


package badger

import (
	"encoding/json"
	"fmt"

	"github.com/poiesic/picsearch/core"
	"github.com/poiesic/picsearch/storage"
)

// Stored values are JSON documents. The payloads flowing through the system
// are JSON-shaped end to end, so the same encoding serves at rest.

// photoDocument is the stored form of a core.Photo; the embedding is carried
// alongside the JSON-visible fields.
type photoDocument struct {
	core.Photo
	Vector []float32 `json:"vector,omitempty"`
}

func marshalPhoto(photo *core.Photo) ([]byte, error) {
	doc := photoDocument{Photo: *photo, Vector: photo.Vector}
	data, err := json.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("%w: photo %d: %w", storage.ErrSerializationFailed, photo.Id, err)
	}
	return data, nil
}

func unmarshalPhoto(data []byte) (*core.Photo, error) {
	var doc photoDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: photo: %w", storage.ErrSerializationFailed, err)
	}
	photo := doc.Photo
	photo.Vector = doc.Vector
	return &photo, nil
}

func marshalJSON(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}
	return data, nil
}

func unmarshalJSON(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}
	return nil
}
