package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func newTrackRepo(t *testing.T) (TrackRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewMySQLTrackRepository(db), mock
}

func TestUpdateDurationNoChangeIsNotMissing(t *testing.T) {
	repo, mock := newTrackRepo(t)

	// Re-submitting the stored duration changes no rows; the track still
	// exists, so the operation must succeed.
	mock.ExpectExec("UPDATE tracks SET duration").
		WithArgs(185.5, sqlmock.AnyArg(), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id FROM tracks WHERE id").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	if err := repo.UpdateDuration(context.Background(), 7, 185.5); err != nil {
		t.Errorf("unchanged duration on an existing track: got err %v, want nil", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpdateDurationMissingTrack(t *testing.T) {
	repo, mock := newTrackRepo(t)

	mock.ExpectExec("UPDATE tracks SET duration").
		WithArgs(10.0, sqlmock.AnyArg(), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id FROM tracks WHERE id").
		WithArgs(int64(9)).
		WillReturnError(sql.ErrNoRows)

	if err := repo.UpdateDuration(context.Background(), 9, 10.0); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing track: got err %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpdateDurationChangedRow(t *testing.T) {
	repo, mock := newTrackRepo(t)

	mock.ExpectExec("UPDATE tracks SET duration").
		WithArgs(200.25, sqlmock.AnyArg(), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateDuration(context.Background(), 7, 200.25); err != nil {
		t.Errorf("changed duration: got err %v, want nil", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
