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


// Package mock provides test doubles for the ai package interfaces.
//
// The mocks are deterministic by default: the completer replays scripted
// responses chopped into small fragments (so chunked-streaming code paths are
// exercised), and the embedder derives vectors from an FNV hash of the input
// text. Both allow full behavior injection through function fields, so tests
// can simulate upstream failures, malformed model output, or mid-stream
// errors without an external inference service.
package mock
