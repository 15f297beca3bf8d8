package knowledge

import (
	"context"
	"fmt"
	"strings"

	"voyo/api_curator/pkg/llm"
)

// Embedder turns track descriptions and free-text vibe queries into vectors
// for similarity search. Nil-safe: a nil Embedder disables vibe search.
type Embedder struct {
	client llm.EmbeddingClient
}

// NewEmbedder wraps an embedding client.
func NewEmbedder(client llm.EmbeddingClient) *Embedder {
	if client == nil {
		return nil
	}
	return &Embedder{client: client}
}

// EmbedQuery embeds a single free-text vibe query.
func (e *Embedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vectors, err := e.client.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return vectors[0], nil
}

// EmbedTrack embeds a track's descriptive text (title, artist, mood).
func (e *Embedder) EmbedTrack(ctx context.Context, track Track) ([]float32, error) {
	text := strings.TrimSpace(fmt.Sprintf("%s by %s, mood %s", track.Title, track.Artist, track.Mood))
	vectors, err := e.client.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed track: %w", err)
	}
	return vectors[0], nil
}
