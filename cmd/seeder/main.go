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


// Seeder loads corpus documents from a JSONL file into the store.
// Documents without a precomputed vector are embedded on the way in.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"iter"
	"log/slog"
	"os"

	"github.com/textflock/refind/ai"
	"github.com/textflock/refind/ai/openai"
	"github.com/textflock/refind/core"
	"github.com/textflock/refind/storage"
	"github.com/textflock/refind/storage/badger"
)

var (
	seedFileName   = flag.String("src", "", "JSONL file of seed documents")
	dbPath         = flag.String("db", "./refind_db", "path to BadgerDB database directory")
	embeddingHost  = flag.String("embedding-host", "http://localhost:11434/v1", "embedding service host URL")
	embeddingModel = flag.String("embedding-model", "all-minilm", "embedding model name")
	batchSize      = flag.Int("batch", 50, "documents per storage batch")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// seedDocument is one line of the seed file.
type seedDocument struct {
	DocId    string            `json:"doc_id"`
	Text     string            `json:"text"`
	Source   string            `json:"source"`
	Category string            `json:"category"`
	Title    string            `json:"title"`
	Vector   []float32         `json:"vector,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// linesFromFile returns an iterator over lines in a file.
func linesFromFile(filename string) (iter.Seq[string], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	return func(yield func(string) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
		for scanner.Scan() {
			if !yield(scanner.Text()) {
				return
			}
		}
	}, nil
}

// seedBatched parses, embeds and stores documents in batches.
// Malformed lines are logged and skipped; the load continues.
func seedBatched(ctx context.Context, repo storage.DocumentRepository, embedder ai.Embedder, source iter.Seq[string], batchSize int) error {
	logger := slog.Default()
	batch := make([]*core.Document, 0, batchSize)
	var loaded, skipped int

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}

		// Embed every document in the batch that arrived without a vector.
		var texts []string
		var missing []int
		for i, doc := range batch {
			if len(doc.Vector) == 0 {
				texts = append(texts, doc.Text)
				missing = append(missing, i)
			}
		}
		if len(texts) > 0 {
			vectors, err := embedder.EmbedTexts(ctx, texts)
			if err != nil {
				return err
			}
			for i, idx := range missing {
				batch[idx].Vector = vectors[i]
			}
		}

		added, err := repo.AddDocuments(ctx, batch...)
		if err != nil {
			return err
		}
		loaded += len(added)
		batch = batch[:0]
		return nil
	}

	for line := range source {
		if line == "" {
			continue
		}

		var seed seedDocument
		if err := json.Unmarshal([]byte(line), &seed); err != nil {
			logger.Warn("skipping malformed seed line", "err", err)
			skipped++
			continue
		}
		category, err := core.ParseCategory(seed.Category)
		if err != nil {
			logger.Warn("skipping seed document with unknown category",
				"docId", seed.DocId, "category", seed.Category)
			skipped++
			continue
		}

		batch = append(batch, &core.Document{
			DocId:    seed.DocId,
			Text:     seed.Text,
			Source:   seed.Source,
			Category: category,
			Title:    seed.Title,
			Vector:   seed.Vector,
			Metadata: seed.Metadata,
		})
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}

	logger.Info("seeding finished", "loaded", loaded, "skipped", skipped)
	return nil
}

func main() {
	if *seedFileName == "" {
		slog.Error("a seed file is required, pass -src")
		os.Exit(1)
	}

	backend, err := badger.OpenBackend(*dbPath, false)
	if err != nil {
		panic(err)
	}
	defer backend.Close()

	repo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		panic(err)
	}
	defer repo.Close()

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(*embeddingHost),
		ai.WithEmbeddingModel(*embeddingModel),
	)
	if err := aiConfig.Validate(); err != nil {
		panic(err)
	}
	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		panic(err)
	}

	source, err := linesFromFile(*seedFileName)
	if err != nil {
		panic(err)
	}

	if err := seedBatched(context.Background(), repo, embedder, source, *batchSize); err != nil {
		panic(err)
	}
}
