package health

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestStatusMemory(t *testing.T) {
	got := NewService(nil).Status(context.Background())
	if got != (Status{OK: true, Storage: "memory"}) {
		t.Fatalf("unexpected status %+v", got)
	}
}

func TestStatusDatabase(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	svc := NewService(db)

	mock.ExpectPing()
	if got := svc.Status(context.Background()); got != (Status{OK: true, Storage: "postgres", Database: "ok"}) {
		t.Fatalf("unexpected status %+v", got)
	}

	mock.ExpectPing().WillReturnError(errors.New("down"))
	if got := svc.Status(context.Background()); got.OK || got.Database != "unreachable" {
		t.Fatalf("unexpected status %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
