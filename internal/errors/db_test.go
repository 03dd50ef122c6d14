package errors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapDBError_NilError(t *testing.T) {
	if err := MapDBError(nil); err != nil {
		t.Errorf("MapDBError(nil) = %v, want nil", err)
	}
}

func TestMapDBError_ContextErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode ErrorCode
	}{
		{name: "deadline exceeded", err: context.DeadlineExceeded, wantCode: ErrCodeTimeout},
		{name: "canceled", err: context.Canceled, wantCode: ErrCodeCanceled},
		{name: "wrapped canceled", err: fmt.Errorf("query: %w", context.Canceled), wantCode: ErrCodeCanceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.err)
			if !IsAppError(err, tt.wantCode) {
				t.Errorf("MapDBError() code = %v, want %v", GetCode(err), tt.wantCode)
			}
		})
	}
}

func TestMapDBError_NoRows(t *testing.T) {
	for _, in := range []error{pgx.ErrNoRows, sql.ErrNoRows} {
		err := MapDBError(in)
		if !IsNotFound(err) {
			t.Errorf("MapDBError(%v) should be NotFound, got %v", in, GetCode(err))
		}
		if !errors.Is(err, in) {
			t.Errorf("MapDBError(%v) lost its cause", in)
		}
	}
}

func TestMapDBError_UniqueViolation(t *testing.T) {
	tests := []struct {
		name      string
		pgErr     *pgconn.PgError
		wantField string
		wantMsg   string
	}{
		{
			name: "column metadata",
			pgErr: &pgconn.PgError{
				Code:       pgerrcode.UniqueViolation,
				TableName:  "users",
				ColumnName: "username",
			},
			wantField: "username",
			wantMsg:   "A user with this username already exists.",
		},
		{
			name: "detail message",
			pgErr: &pgconn.PgError{
				Code:      pgerrcode.UniqueViolation,
				TableName: "users",
				Detail:    "Key (username)=(alice) already exists.",
			},
			wantField: "username",
			wantMsg:   "A user with this username already exists.",
		},
		{
			name: "constraint name",
			pgErr: &pgconn.PgError{
				Code:           pgerrcode.UniqueViolation,
				TableName:      "users",
				ConstraintName: "users_username_key",
			},
			wantField: "username",
			wantMsg:   "A user with this username already exists.",
		},
		{
			name:    "no hints",
			pgErr:   &pgconn.PgError{Code: pgerrcode.UniqueViolation},
			wantMsg: "This value already exists. Please choose a different one.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.pgErr)
			if !IsConflict(err) {
				t.Fatalf("MapDBError() code = %v, want conflict", GetCode(err))
			}
			if got := GetField(err); got != tt.wantField {
				t.Errorf("field = %q, want %q", got, tt.wantField)
			}
			if got := UserMessage(err, ""); got != tt.wantMsg {
				t.Errorf("message = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestMapDBError_OtherPgCodes(t *testing.T) {
	tests := []struct {
		name      string
		pgErr     *pgconn.PgError
		wantCode  ErrorCode
		wantField string
	}{
		{
			name:     "foreign key",
			pgErr:    &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, TableName: "posts", ConstraintName: "posts_author_id_fkey"},
			wantCode: ErrCodeForeignKey,
		},
		{
			name:      "check",
			pgErr:     &pgconn.PgError{Code: pgerrcode.CheckViolation, ConstraintName: "posts_title_check"},
			wantCode:  ErrCodeValidation,
			wantField: "title",
		},
		{
			name:      "not null",
			pgErr:     &pgconn.PgError{Code: pgerrcode.NotNullViolation, ColumnName: "body"},
			wantCode:  ErrCodeValidation,
			wantField: "body",
		},
		{
			name:     "unhandled",
			pgErr:    &pgconn.PgError{Code: pgerrcode.SerializationFailure},
			wantCode: ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.pgErr)
			if got := GetCode(err); got != tt.wantCode {
				t.Errorf("code = %v, want %v", got, tt.wantCode)
			}
			if got := GetField(err); got != tt.wantField {
				t.Errorf("field = %q, want %q", got, tt.wantField)
			}
		})
	}
}

func TestMapDBError_UnknownPassthrough(t *testing.T) {
	orig := errors.New("boom")
	if err := MapDBError(orig); err != orig {
		t.Errorf("MapDBError() = %v, want original error", err)
	}
}

func TestInferFieldFromConstraint(t *testing.T) {
	tests := map[string]string{
		"":                     "",
		"users_username_key":   "username",
		"posts_author_id_fkey": "author_id",
		"posts_title_check":    "title",
		"sessions_token_idx":   "token",
		"nounderscore":         "",
	}
	for in, want := range tests {
		if got := inferFieldFromConstraint(in); got != want {
			t.Errorf("inferFieldFromConstraint(%q) = %q, want %q", in, got, want)
		}
	}
}
