package knowledge

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestLookupByMood(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "title", "artist", "mood", "energy"}).
		AddRow("k1", "Organise", "Asake", "party", 0.92).
		AddRow("k2", "Sungba", "Asake", "party", 0.88)
	mock.ExpectQuery(`FROM voyo\.track_knowledge\s+WHERE mood = \$1`).
		WithArgs("party", 5).
		WillReturnRows(rows)

	store := NewStore(db)
	tracks, err := store.LookupByMood(context.Background(), "party", 5)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(tracks) != 2 || tracks[0].ID != "k1" || tracks[0].Energy != 0.92 {
		t.Fatalf("unexpected tracks: %+v", tracks)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestLookupByMoodRequiresMood(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	store := NewStore(db)
	if _, err := store.LookupByMood(context.Background(), "", 5); err == nil {
		t.Fatal("expected error for empty mood")
	}
}

func TestSearchByVibe(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "title", "artist", "mood", "energy", "similarity"}).
		AddRow("k1", "Water", "Tyla", "chill", 0.6, 0.91)
	mock.ExpectQuery(`ORDER BY embedding <=> \$1`).
		WillReturnRows(rows)

	store := NewStore(db)
	tracks, err := store.SearchByVibe(context.Background(), []float32{0.1, 0.2}, 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(tracks) != 1 || tracks[0].Similarity != 0.91 {
		t.Fatalf("unexpected tracks: %+v", tracks)
	}
}

func TestSearchByVibeRequiresEmbedding(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	store := NewStore(db)
	if _, err := store.SearchByVibe(context.Background(), nil, 3); err == nil {
		t.Fatal("expected error for missing embedding")
	}
}

func TestUpsertWithoutEmbedding(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`INSERT INTO voyo\.track_knowledge`).
		WithArgs("k1", "Essence", "Wizkid", "chill", 0.5, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewStore(db)
	err = store.Upsert(context.Background(), Track{
		ID: "k1", Title: "Essence", Artist: "Wizkid", Mood: "chill", Energy: 0.5,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteRequiresID(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	store := NewStore(db)
	if err := store.Delete(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty id")
	}
}
