package services

import (
	"context"
	"strconv"

	"github.com/formcraft/backend/internal/domain/models"
	"github.com/formcraft/backend/pkg/utils"
)

// loadRepeater reads `{field}` as the row-count marker, then loads each
// row's resolved sub-field values at their row-scoped keys.
func (cs *CodecService) loadRepeater(ctx context.Context, p *pass, subject string, field *models.FieldDefinition, mode LoadMode) (*models.CompositeValue, error) {
	subs := p.sess.SubFields(field)
	if len(subs) == 0 {
		// All clone selectors dangling or no sub-fields defined: no-op.
		return &models.CompositeValue{}, nil
	}

	raw, ok, err := cs.values.Get(ctx, subject, field.Name)
	if err != nil {
		return nil, err
	}
	count := 0
	if ok {
		count = utils.ToInt(raw)
	}

	value := &models.CompositeValue{}
	for i := 0; i < count; i++ {
		row := &models.Row{Index: i, Values: models.RowValue{}}
		for _, sub := range subs {
			v, err := cs.loadSubValue(ctx, p, subject, field.Name, i, sub, mode)
			if err != nil {
				return nil, err
			}
			row.Values[sub.Identity.EffectiveKey] = v
		}
		if mode == LoadForEdit {
			cs.applyConditions(row, subs)
		}
		value.Rows = append(value.Rows, row)
	}
	return value, nil
}

// updateRepeater diffs against the stored row count, writes the new rows,
// deletes rows beyond the new count, and persists the count marker last so
// a partially failed write never advertises rows that were not written.
func (cs *CodecService) updateRepeater(ctx context.Context, p *pass, subject string, field *models.FieldDefinition, value *models.CompositeValue) error {
	subs := p.sess.SubFields(field)
	if len(subs) == 0 {
		return nil
	}

	raw, ok, err := cs.values.Get(ctx, subject, field.Name)
	if err != nil {
		return err
	}
	oldCount := 0
	if ok {
		oldCount = utils.ToInt(raw)
	}

	rows := rowValues(value)
	for i, row := range rows {
		for _, sub := range subs {
			v, present := lookupRowValue(row, sub)
			if !present {
				// Absence is not deletion: values hidden by display-time
				// conditions stay untouched.
				continue
			}
			if err := cs.updateSubValue(ctx, p, subject, field.Name, i, sub, v); err != nil {
				return err
			}
		}
	}

	// Shrink cleanup: rows past the new count are fully removed, or a
	// later load would resurrect them.
	for i := len(rows); i < oldCount; i++ {
		if err := cs.deleteRow(ctx, p, subject, field.Name, i, subs); err != nil {
			return err
		}
	}

	return cs.values.Set(ctx, subject, field.Name, strconv.Itoa(len(rows)))
}

// deleteRepeater removes every row's every sub-field, then the marker.
func (cs *CodecService) deleteRepeater(ctx context.Context, p *pass, subject string, field *models.FieldDefinition) error {
	subs := p.sess.SubFields(field)
	if len(subs) == 0 {
		return nil
	}

	raw, ok, err := cs.values.Get(ctx, subject, field.Name)
	if err != nil {
		return err
	}
	count := 0
	if ok {
		count = utils.ToInt(raw)
	}

	for i := 0; i < count; i++ {
		if err := cs.deleteRow(ctx, p, subject, field.Name, i, subs); err != nil {
			return err
		}
	}
	return cs.values.Delete(ctx, subject, field.Name)
}
