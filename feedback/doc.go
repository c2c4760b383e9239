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


// Package feedback turns accumulated user votes into score penalties.
//
// Votes are keyed by the content hash of the document text, so feedback
// survives re-ingestion and re-embedding of the same content. Each
// downvote subtracts a fixed amount from a document's relevance score, up
// to a saturation cap; upvotes are recorded for analytics but never offset
// the penalty.
//
// The Ledger writes every vote to the primary store and, when configured,
// to an append-only JSONL backup log. The backup write is best effort and
// never fails the vote. The Reconciler replays backup records missing from
// the primary store as an offline batch job.
package feedback
