package database

import (
	"database/sql"
	"time"
)

// nullableInt64 converts an int64 to sql.NullInt64 for optional fields.
// Values <= 0 are treated as NULL.
func nullableInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v > 0}
}

// nullableString converts a string to sql.NullString for optional fields.
// Empty strings are treated as NULL.
func nullableString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func toUnixMilli(t time.Time) int64 {
	return t.UnixMilli()
}

func fromUnixMilli(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
