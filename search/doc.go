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

// Package search answers free-text species queries.
//
// The Searcher type runs a multi-stage query:
//   - Intent parsing, which turns numbers next to trigger words into range predicates
//   - An index query combining text relevance with the predicates, optionally cached
//   - Refinement by explicit range and type bounds
//   - A split into top hits and category clusters over the remaining hits
//   - Related recommendations for every top hit, ranked by similarity within
//     the hit's category
//
// Related recommendations are fetched concurrently. A failed fetch is logged
// and leaves that hit without recommendations; it never fails the search.
package search
