package repository

import (
	"database/sql"
	"fmt"
)

// requireRowAffected translates a zero-row write into sql.ErrNoRows so
// services can distinguish "absent" from storage failures.
func requireRowAffected(result sql.Result, resource string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check %s rows: %w", resource, err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
