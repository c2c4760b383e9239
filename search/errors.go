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


package search

import "errors"

var (
	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrLedgerRequired is returned when a feedback ledger is not provided.
	ErrLedgerRequired = errors.New("feedback ledger required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrEmptyQuery is returned when the query is empty after trimming.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrInvalidTopK is returned when TopK is not positive.
	ErrInvalidTopK = errors.New("topK must be positive")

	// ErrInvalidMinScore is returned when MinScore falls outside [0, 1].
	ErrInvalidMinScore = errors.New("minScore must be within [0, 1]")
)
