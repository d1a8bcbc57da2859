package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/formcraft/backend/pkg/constants"
)

// ValueRepository is the MySQL-backed flat value store. Each value is one
// row keyed by (subject, meta key); writes are upserts so re-saving a
// composite never needs a read-modify-write cycle.
type ValueRepository struct {
	db *sql.DB
}

func NewValueRepository(db *sql.DB) *ValueRepository {
	return &ValueRepository{db: db}
}

func (r *ValueRepository) Get(ctx context.Context, subject, key string) (string, bool, error) {
	var value string
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? AND %s = ?",
		constants.ColMetaValue, constants.TableFieldValues, constants.ColSubjectID, constants.ColMetaKey)
	err := r.db.QueryRowContext(ctx, query, subject, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (r *ValueRepository) Set(ctx context.Context, subject, key, value string) error {
	query := fmt.Sprintf("INSERT INTO %s (%s, %s, %s) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE %s = VALUES(%s)",
		constants.TableFieldValues, constants.ColSubjectID, constants.ColMetaKey, constants.ColMetaValue,
		constants.ColMetaValue, constants.ColMetaValue)
	_, err := r.db.ExecContext(ctx, query, subject, key, value)
	return err
}

func (r *ValueRepository) Delete(ctx context.Context, subject, key string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ? AND %s = ?",
		constants.TableFieldValues, constants.ColSubjectID, constants.ColMetaKey)
	_, err := r.db.ExecContext(ctx, query, subject, key)
	return err
}

// ListKeys returns every stored key for a subject with the given prefix,
// in key order. Used by admin tooling to inspect a subject's raw rows.
func (r *ValueRepository) ListKeys(ctx context.Context, subject, prefix string) ([]string, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? AND %s LIKE ? ORDER BY %s",
		constants.ColMetaKey, constants.TableFieldValues, constants.ColSubjectID, constants.ColMetaKey, constants.ColMetaKey)
	rows, err := r.db.QueryContext(ctx, query, subject, prefix+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
