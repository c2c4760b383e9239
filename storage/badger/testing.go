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


package badger

import "github.com/textflock/refind/storage"

// NewMemoryRepositories creates in-memory document, feedback and denylist
// repositories for testing. Returns the repositories plus the backend.
// Caller must close the repositories and backend when done.
func NewMemoryRepositories() (storage.DocumentRepository, storage.FeedbackRepository, storage.DenylistRepository, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	docRepo, err := NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, nil, nil, nil, err
	}

	return docRepo, NewFeedbackRepository(backend), NewDenylistRepository(backend), backend, nil
}
