package stores

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// CollectiveTrack is a ranked row from the shared listening pool.
type CollectiveTrack struct {
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	PlayCount int    `json:"play_count"`
}

// CollectiveStore reads aggregate play data shared across all listeners.
type CollectiveStore struct {
	db *sql.DB
}

// NewCollectiveStore creates a collective store over an existing connection.
func NewCollectiveStore(db *sql.DB) *CollectiveStore {
	return &CollectiveStore{db: db}
}

// TopTracks returns the most-played tracks across all sessions.
func (s *CollectiveStore) TopTracks(ctx context.Context, limit int) ([]CollectiveTrack, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT title, artist, play_count
		FROM voyo.collective_tracks
		ORDER BY play_count DESC, title ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query collective tracks: %w", err)
	}
	defer rows.Close()

	var tracks []CollectiveTrack
	for rows.Next() {
		var t CollectiveTrack
		if err := rows.Scan(&t.Title, &t.Artist, &t.PlayCount); err != nil {
			return nil, fmt.Errorf("scan collective track: %w", err)
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

// TopTracksByArtists returns the most-played tracks restricted to a fixed
// artist rotation. Used by the fallback curation path.
func (s *CollectiveStore) TopTracksByArtists(ctx context.Context, artists []string, limit int) ([]CollectiveTrack, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT title, artist, play_count
		FROM voyo.collective_tracks
		WHERE artist = ANY($1)
		ORDER BY play_count DESC, title ASC
		LIMIT $2`, pq.Array(artists), limit)
	if err != nil {
		return nil, fmt.Errorf("query collective tracks by artist: %w", err)
	}
	defer rows.Close()

	var tracks []CollectiveTrack
	for rows.Next() {
		var t CollectiveTrack
		if err := rows.Scan(&t.Title, &t.Artist, &t.PlayCount); err != nil {
			return nil, fmt.Errorf("scan collective track: %w", err)
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

// RecordPlay upserts a play-count increment for a track.
func (s *CollectiveStore) RecordPlay(ctx context.Context, title, artist string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO voyo.collective_tracks (title, artist, play_count)
		VALUES ($1, $2, 1)
		ON CONFLICT (title, artist)
		DO UPDATE SET play_count = voyo.collective_tracks.play_count + 1`, title, artist)
	if err != nil {
		return fmt.Errorf("record play: %w", err)
	}
	return nil
}
