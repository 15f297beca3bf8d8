package stores

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestTopTracks(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"title", "artist", "play_count"}).
		AddRow("Last Last", "Burna Boy", 950).
		AddRow("Essence", "Wizkid", 900)
	mock.ExpectQuery(`SELECT title, artist, play_count\s+FROM voyo\.collective_tracks\s+ORDER BY play_count DESC`).
		WithArgs(2).
		WillReturnRows(rows)

	store := NewCollectiveStore(db)
	tracks, err := store.TopTracks(context.Background(), 2)
	if err != nil {
		t.Fatalf("top tracks: %v", err)
	}
	if len(tracks) != 2 || tracks[0].Artist != "Burna Boy" || tracks[1].PlayCount != 900 {
		t.Fatalf("unexpected tracks: %+v", tracks)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestTopTracksByArtists(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"title", "artist", "play_count"}).
		AddRow("Calm Down", "Rema", 700)
	mock.ExpectQuery(`WHERE artist = ANY`).
		WillReturnRows(rows)

	store := NewCollectiveStore(db)
	tracks, err := store.TopTracksByArtists(context.Background(), []string{"Rema", "Tems"}, 5)
	if err != nil {
		t.Fatalf("top tracks by artists: %v", err)
	}
	if len(tracks) != 1 || tracks[0].Title != "Calm Down" {
		t.Fatalf("unexpected tracks: %+v", tracks)
	}
}

func TestRecordPlay(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`INSERT INTO voyo\.collective_tracks`).
		WithArgs("Essence", "Wizkid").
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewCollectiveStore(db)
	if err := store.RecordPlay(context.Background(), "Essence", "Wizkid"); err != nil {
		t.Fatalf("record play: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
