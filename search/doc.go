// Copyright 2025 Textflock
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


// Package search retrieves and ranks documents for a query.
//
// The Searcher embeds the query, scans the full candidate corpus, scores
// each candidate by cosine similarity adjusted for accumulated feedback
// penalties, and ranks survivors by category priority first and adjusted
// score second. Scoring is sharded across a worker pool; the candidate scan
// is complete and never truncated before scoring.
//
// Upstream failures (embedder or store) degrade the response to empty hits
// with the diagnostic attached rather than returning an error; only invalid
// input is an error to the caller.
package search
