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


// Package filter implements query admission control: an ordered chain of
// named rules evaluated before retrieval runs.
//
// The chain blocks on the first matching rule and reports the rule name, so
// callers can explain the rejection. Rules that fail with an error are
// skipped rather than blocking. The denylist rule reads from a cached phrase
// snapshot that is refreshed by atomic replacement, making it safe for
// concurrent readers. Blocked attempts are recorded through an AuditSink.
package filter
