package knowledge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"
)

// Track is a pre-classified track in the mood knowledge base.
type Track struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Artist     string    `json:"artist"`
	Mood       string    `json:"mood"`
	Energy     float64   `json:"energy"`
	Embedding  []float32 `json:"-"`
	Similarity float64   `json:"similarity,omitempty"`
}

// Store holds mood-classified tracks in Postgres with an optional vibe
// embedding column for similarity search.
type Store struct {
	db *sql.DB
}

// NewStore creates a knowledge store over an existing connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// LookupByMood returns classified tracks matching a mood, highest energy first.
func (s *Store) LookupByMood(ctx context.Context, mood string, limit int) ([]Track, error) {
	if mood == "" {
		return nil, errors.New("mood is required")
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, artist, mood, energy
		FROM voyo.track_knowledge
		WHERE mood = $1
		ORDER BY energy DESC, title ASC
		LIMIT $2
	`, mood, limit)
	if err != nil {
		return nil, fmt.Errorf("lookup by mood: %w", err)
	}
	defer rows.Close()

	var tracks []Track
	for rows.Next() {
		var t Track
		if err := rows.Scan(&t.ID, &t.Title, &t.Artist, &t.Mood, &t.Energy); err != nil {
			return nil, fmt.Errorf("scan knowledge track: %w", err)
		}
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate knowledge tracks: %w", err)
	}

	return tracks, nil
}

// SearchByVibe runs a cosine-similarity search over track embeddings.
func (s *Store) SearchByVibe(ctx context.Context, embedding []float32, limit int) ([]Track, error) {
	if len(embedding) == 0 {
		return nil, errors.New("embedding is required")
	}
	if limit <= 0 {
		limit = 5
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id,
			title,
			artist,
			mood,
			energy,
			1 - (embedding <=> $1) AS similarity
		FROM voyo.track_knowledge
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1
		LIMIT $2
	`, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("search by vibe: %w", err)
	}
	defer rows.Close()

	var tracks []Track
	for rows.Next() {
		var t Track
		if err := rows.Scan(&t.ID, &t.Title, &t.Artist, &t.Mood, &t.Energy, &t.Similarity); err != nil {
			return nil, fmt.Errorf("scan knowledge track: %w", err)
		}
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate knowledge tracks: %w", err)
	}

	return tracks, nil
}

// Upsert inserts or replaces a classified track.
func (s *Store) Upsert(ctx context.Context, track Track) error {
	if track.ID == "" {
		return errors.New("track id is required")
	}
	if track.Mood == "" {
		return errors.New("mood is required")
	}

	var embedding interface{}
	if len(track.Embedding) > 0 {
		embedding = pgvector.NewVector(track.Embedding)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO voyo.track_knowledge (id, title, artist, mood, energy, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id)
		DO UPDATE SET title = $2, artist = $3, mood = $4, energy = $5, embedding = $6
	`, track.ID, track.Title, track.Artist, track.Mood, track.Energy, embedding)
	if err != nil {
		return fmt.Errorf("upsert knowledge track: %w", err)
	}
	return nil
}

// ListByMood returns all classified tracks grouped under a mood.
func (s *Store) ListByMood(ctx context.Context, mood string) ([]Track, error) {
	return s.LookupByMood(ctx, mood, 500)
}

// Delete removes a classified track.
func (s *Store) Delete(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("track id is required")
	}
	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM voyo.track_knowledge WHERE id = $1
	`, id); err != nil {
		return fmt.Errorf("delete knowledge track: %w", err)
	}
	return nil
}
