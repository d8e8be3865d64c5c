// Package memory is the index behind memory_search: workspace notes chunked
// into a persistent vector collection with caller-supplied embeddings.
package memory

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/philippgille/chromem-go"
)

// Embedder turns text into a vector. The model-provider collaborator supplies
// this; tests supply a deterministic local one.
type Embedder func(ctx context.Context, text string) ([]float32, error)

// Chunk is one scored search hit.
type Chunk struct {
	File      string
	LineStart int
	LineEnd   int
	Score     float32
	Content   string
}

const (
	collectionName = "memory"
	chunkLines     = 20
)

type Manager struct {
	db    *chromem.DB
	embed Embedder
}

func NewManager(persistDir string, embed Embedder) (*Manager, error) {
	if embed == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	db, err := chromem.NewPersistentDB(persistDir, false)
	if err != nil {
		return nil, fmt.Errorf("init vector db: %w", err)
	}
	return &Manager{db: db, embed: embed}, nil
}

// Index splits a note file into fixed-size line chunks and upserts them.
func (m *Manager) Index(ctx context.Context, file, content string) error {
	col, err := m.db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return err
	}

	lines := strings.Split(content, "\n")
	for start := 0; start < len(lines); start += chunkLines {
		end := start + chunkLines
		if end > len(lines) {
			end = len(lines)
		}
		chunk := strings.Join(lines[start:end], "\n")
		if strings.TrimSpace(chunk) == "" {
			continue
		}

		vector, err := m.embed(ctx, chunk)
		if err != nil {
			return fmt.Errorf("embed chunk: %w", err)
		}

		// AddDocuments is upsert in chromem.
		err = col.AddDocuments(ctx, []chromem.Document{
			{
				ID: fmt.Sprintf("%s:%d", file, start+1),
				Metadata: map[string]string{
					"file":       file,
					"line_start": strconv.Itoa(start + 1),
					"line_end":   strconv.Itoa(end),
				},
				Embedding: vector,
				Content:   chunk,
			},
		}, 1)
		if err != nil {
			return err
		}
	}
	return nil
}

// Search returns up to limit chunks ranked by similarity.
func (m *Manager) Search(ctx context.Context, query string, limit int) ([]Chunk, error) {
	col := m.db.GetCollection(collectionName, nil)
	if col == nil {
		return nil, nil
	}
	if count := col.Count(); limit > count {
		limit = count
	}
	if limit <= 0 {
		return nil, nil
	}

	vector, err := m.embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	docs, err := col.QueryEmbedding(ctx, vector, limit, nil, nil)
	if err != nil {
		return nil, err
	}

	chunks := make([]Chunk, 0, len(docs))
	for _, doc := range docs {
		lineStart, _ := strconv.Atoi(doc.Metadata["line_start"])
		lineEnd, _ := strconv.Atoi(doc.Metadata["line_end"])
		chunks = append(chunks, Chunk{
			File:      doc.Metadata["file"],
			LineStart: lineStart,
			LineEnd:   lineEnd,
			Score:     doc.Similarity,
			Content:   doc.Content,
		})
	}
	return chunks, nil
}
