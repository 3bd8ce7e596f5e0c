package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/antenickawest-png/Scheduling-Board-v5/internal/models"
	"github.com/lib/pq"
)

func TestQueryError(t *testing.T) {
	if err := queryError("select", "users", nil); err != nil {
		t.Errorf("Expected nil, got %v", err)
	}

	err := queryError("select", "current_board", sql.ErrNoRows)
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	var qe *models.QueryError
	if !errors.As(err, &qe) || qe.Table != "current_board" || qe.Op != "select" {
		t.Errorf("Expected QueryError, got %#v", err)
	}

	dup := fmt.Errorf("exec: %w", &pq.Error{Code: "23505", Message: "duplicate key"})
	if err := queryError("insert", "identities", dup); !errors.Is(err, models.ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate, got %v", err)
	}

	malformed := &pq.Error{Code: "22P02", Message: `invalid input syntax for type uuid: "abc"`}
	if err := queryError("select", "schedules", malformed); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for a malformed id, got %v", err)
	}

	other := errors.New("connection reset")
	if err := queryError("insert", "crews", other); errors.Is(err, models.ErrDuplicate) || err.Error() != "insert crews: connection reset" {
		t.Errorf("Unexpected error %v", err)
	}
}

func TestNullHelpers(t *testing.T) {
	if v := nullJSON(nil); v != nil {
		t.Errorf("Expected nil, got %v", v)
	}
	if v := nullJSON([]byte(`{"kc":[]}`)); v != `{"kc":[]}` {
		t.Errorf("Unexpected %v", v)
	}
	if ns := nullString(""); ns.Valid {
		t.Error("Empty string should be NULL")
	}
}
