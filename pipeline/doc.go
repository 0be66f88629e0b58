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


// Package pipeline implements the photo search orchestration pipeline: a
// fixed sequence of inference stages that turns a text or text+image query
// into a ranked, reasoned list of matching photos.
//
// A run proceeds through query extraction, optional image analysis, query
// formatting, vector retrieval, and a per-candidate reasoning loop. Each
// stage streams model output; the pipeline forwards fragments as events
// through a Sink while accumulating the full text for the next stage.
// Structured stages parse their accumulated text with documented fallbacks,
// so malformed model output degrades the result instead of failing the run.
//
// Stage output is a finite, single-pass fragment sequence. The pipeline
// consumes each sequence exactly once, buffering while streaming; it never
// re-iterates a drained sequence.
package pipeline
