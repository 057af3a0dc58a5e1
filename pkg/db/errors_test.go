package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key", Message: "duplicate key value violates unique constraint"}

	cases := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "pg wrapped", err: fmt.Errorf("insert: %w", pgErr), want: true},
		{name: "pg constraint match", err: pgErr, constraint: "users_email_key", want: true},
		{name: "pg constraint mismatch", err: pgErr, constraint: "other", want: false},
		{name: "sqlite", err: errors.New("UNIQUE constraint failed: users.email"), constraint: "users.email", want: true},
		{name: "pq", err: &pq.Error{Code: "23505", Constraint: "idx_users_email"}, constraint: "idx_users_email", want: true},
		{name: "pq other code", err: &pq.Error{Code: "23503"}, want: false},
		{name: "unrelated", err: errors.New("connection refused"), want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsUniqueViolation(tc.err, tc.constraint); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
