package errors

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// reKeyField extracts the column list from "Key (field)=(value) already exists.".
var reKeyField = regexp.MustCompile(`Key \(([^)]+)\)=`)

// tableNouns maps schema tables to the noun used in user-facing messages.
var tableNouns = map[string]string{
	"users": "user",
	"posts": "post",
}

// MapDBError maps database errors to AppError instances:
// no-rows results become NotFound, unique violations become Conflict,
// foreign key violations become ForeignKey and check or NOT NULL violations
// become Validation. Context errors map to Timeout and Canceled.
//
// Unrecognized errors are returned unchanged.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &AppError{Code: ErrCodeTimeout, Message: "Request timed out. Please try again.", Cause: err}
	case errors.Is(err, context.Canceled):
		return &AppError{Code: ErrCodeCanceled, Message: "Request was canceled.", Cause: err}
	case errors.Is(err, pgx.ErrNoRows), errors.Is(err, sql.ErrNoRows):
		return &AppError{Code: ErrCodeNotFound, Message: "Resource not found", Cause: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return mapPgError(pgErr)
	}
	return err
}

func mapPgError(pgErr *pgconn.PgError) error {
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		return mapUniqueViolation(pgErr)
	case pgerrcode.ForeignKeyViolation:
		return &AppError{
			Code:    ErrCodeForeignKey,
			Message: "The referenced " + nounForTable(pgErr.TableName) + " does not exist or is still in use.",
			Cause:   pgErr,
		}
	case pgerrcode.CheckViolation:
		return &AppError{
			Code:    ErrCodeValidation,
			Message: "Invalid value provided.",
			Field:   inferFieldFromConstraint(pgErr.ConstraintName),
			Cause:   pgErr,
		}
	case pgerrcode.NotNullViolation:
		return &AppError{
			Code:    ErrCodeValidation,
			Message: "A required field is missing.",
			Field:   pgErr.ColumnName,
			Cause:   pgErr,
		}
	default:
		return &AppError{
			Code:    ErrCodeInternal,
			Message: "A database error occurred. Please try again.",
			Cause:   pgErr,
		}
	}
}

func mapUniqueViolation(pgErr *pgconn.PgError) error {
	field := pgErr.ColumnName
	if field == "" && pgErr.Detail != "" {
		if m := reKeyField.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
			field = m[1]
		}
	}
	if field == "" {
		field = inferFieldFromConstraint(pgErr.ConstraintName)
	}

	message := "This value already exists. Please choose a different one."
	if field != "" {
		message = "A " + nounForTable(pgErr.TableName) + " with this " + field + " already exists."
	}
	return &AppError{Code: ErrCodeConflict, Message: message, Field: field, Cause: pgErr}
}

func nounForTable(table string) string {
	if noun, ok := tableNouns[table]; ok {
		return noun
	}
	return "record"
}

// inferFieldFromConstraint extracts a column name from Postgres default
// constraint names such as "users_username_key" or "posts_title_check".
func inferFieldFromConstraint(constraint string) string {
	if constraint == "" {
		return ""
	}
	for _, suffix := range []string{"_key", "_check", "_fkey", "_idx"} {
		if trimmed, ok := strings.CutSuffix(constraint, suffix); ok {
			constraint = trimmed
			break
		}
	}
	for table := range tableNouns {
		if rest, ok := strings.CutPrefix(constraint, table+"_"); ok {
			return rest
		}
	}
	if i := strings.IndexByte(constraint, '_'); i >= 0 && i < len(constraint)-1 {
		return constraint[i+1:]
	}
	return ""
}
