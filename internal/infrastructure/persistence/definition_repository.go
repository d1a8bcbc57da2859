package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/formcraft/backend/internal/domain/models"
	"github.com/formcraft/backend/pkg/constants"
)

// DefinitionRepository stores field group definitions as JSON documents,
// one row per group.
type DefinitionRepository struct {
	db *sql.DB
}

func NewDefinitionRepository(db *sql.DB) *DefinitionRepository {
	return &DefinitionRepository{db: db}
}

func (r *DefinitionRepository) LoadAll(ctx context.Context) ([]*models.FieldGroup, error) {
	query := fmt.Sprintf("SELECT %s, %s, %s FROM %s ORDER BY %s",
		constants.ColGroupKey, constants.ColTitle, constants.ColDefinition,
		constants.TableFieldGroups, constants.ColGroupKey)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []*models.FieldGroup
	for rows.Next() {
		var key, title, definition string
		if err := rows.Scan(&key, &title, &definition); err != nil {
			return nil, err
		}
		group := &models.FieldGroup{Key: key, Title: title}
		if err := json.Unmarshal([]byte(definition), &group.Fields); err != nil {
			return nil, fmt.Errorf("corrupt definition for group %s: %w", key, err)
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

func (r *DefinitionRepository) Save(ctx context.Context, group *models.FieldGroup) error {
	definition, err := json.Marshal(group.Fields)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("INSERT INTO %s (%s, %s, %s) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE %s = VALUES(%s), %s = VALUES(%s)",
		constants.TableFieldGroups, constants.ColGroupKey, constants.ColTitle, constants.ColDefinition,
		constants.ColTitle, constants.ColTitle, constants.ColDefinition, constants.ColDefinition)
	_, err = r.db.ExecContext(ctx, query, group.Key, group.Title, string(definition))
	return err
}

func (r *DefinitionRepository) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?",
		constants.TableFieldGroups, constants.ColGroupKey)
	_, err := r.db.ExecContext(ctx, query, key)
	return err
}
