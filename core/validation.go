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


package core

import (
	"fmt"
)

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - Category must be a member of the closed set
//
// NOT validated:
//   - Vector (documents may be stored before embedding; the engine skips
//     them at query time)
//   - ID (0 is valid before a database sequence assigns one)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyText)
	}

	if !doc.Category.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidDocument, ErrInvalidCategory, doc.Category)
	}

	return nil
}

// ValidateFeedbackRecord validates a FeedbackRecord according to domain rules.
//
// Validation rules:
//   - TextHash must not be empty
//   - Vote must be valid (up or down)
func ValidateFeedbackRecord(record *FeedbackRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidFeedbackRecord)
	}

	if record.TextHash == "" {
		return fmt.Errorf("%w: %w", ErrInvalidFeedbackRecord, ErrEmptyTextHash)
	}

	if err := ValidateVote(record.Vote); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFeedbackRecord, err)
	}

	return nil
}

// ValidateVote validates that a Vote has a valid value.
func ValidateVote(vote Vote) error {
	if vote != VoteUp && vote != VoteDown {
		return fmt.Errorf("%w: value %d", ErrInvalidVote, vote)
	}
	return nil
}
