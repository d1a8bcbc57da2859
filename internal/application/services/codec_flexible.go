package services

import (
	"context"
	"encoding/json"
	"log"

	"github.com/formcraft/backend/internal/domain/models"
)

// layoutTags decodes the ordered list of chosen layout tags from the
// field's marker value. A corrupt marker reads as no rows.
func layoutTags(raw string) []string {
	if raw == "" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		log.Printf("⚠️  Warning: corrupt layout order marker: %v", err)
		return nil
	}
	return tags
}

// loadFlexible reads `{field}` as the ordered layout tag list and loads
// each row using the sub-field set of the layout its tag names. A row
// whose layout was removed from the definition is preserved for editing
// (flagged unresolved, empty value set) and omitted from output loads.
func (cs *CodecService) loadFlexible(ctx context.Context, p *pass, subject string, field *models.FieldDefinition, mode LoadMode) (*models.CompositeValue, error) {
	if len(field.Layouts) == 0 {
		return &models.CompositeValue{}, nil
	}

	raw, _, err := cs.values.Get(ctx, subject, field.Name)
	if err != nil {
		return nil, err
	}
	tags := layoutTags(raw)

	meta, err := p.meta.Get(ctx, subject, field.Name)
	if err != nil {
		return nil, err
	}

	value := &models.CompositeValue{}
	for i, tag := range tags {
		disabled := meta.IsDisabled(i)

		layout := field.LayoutByName(tag)
		if layout == nil {
			if mode == LoadForOutput {
				continue
			}
			value.Rows = append(value.Rows, &models.Row{
				Index:      i,
				Layout:     tag,
				Disabled:   disabled,
				Unresolved: true,
				Label:      meta.LabelFor(i),
				Values:     models.RowValue{},
			})
			continue
		}

		if mode == LoadForOutput && disabled {
			continue
		}

		row := &models.Row{
			Index:  i,
			Layout: tag,
			Values: models.RowValue{},
		}
		if mode == LoadForEdit {
			row.Disabled = disabled
			row.Label = meta.LabelFor(i)
		}

		subs := p.sess.LayoutSubFields(layout)
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

// updateFlexible diffs against the stored layout tag list. A row whose
// layout changed has its old sub-field set deleted before the new one is
// written; rows beyond the new length are removed entirely. The layout
// meta record is rewritten in the same pass, and the tag-list marker is
// persisted last.
func (cs *CodecService) updateFlexible(ctx context.Context, p *pass, subject string, field *models.FieldDefinition, value *models.CompositeValue) error {
	if len(field.Layouts) == 0 {
		return nil
	}

	raw, _, err := cs.values.Get(ctx, subject, field.Name)
	if err != nil {
		return err
	}
	oldTags := layoutTags(raw)

	rows := rowValues(value)
	for i, row := range rows {
		if i < len(oldTags) && oldTags[i] != row.Layout {
			if oldLayout := field.LayoutByName(oldTags[i]); oldLayout != nil {
				oldSubs := p.sess.LayoutSubFields(oldLayout)
				if err := cs.deleteRow(ctx, p, subject, field.Name, i, oldSubs); err != nil {
					return err
				}
			}
		}

		layout := field.LayoutByName(row.Layout)
		if layout == nil {
			// Unknown tag: the row's stored sub-values (if any) are
			// preserved rather than repaired or cleared.
			continue
		}

		subs := p.sess.LayoutSubFields(layout)
		for _, sub := range subs {
			v, present := lookupRowValue(row, sub)
			if !present {
				continue
			}
			if err := cs.updateSubValue(ctx, p, subject, field.Name, i, sub, v); err != nil {
				return err
			}
		}
	}

	// Rows the new value no longer has.
	for i := len(rows); i < len(oldTags); i++ {
		oldLayout := field.LayoutByName(oldTags[i])
		if oldLayout == nil {
			continue
		}
		if err := cs.deleteRow(ctx, p, subject, field.Name, i, p.sess.LayoutSubFields(oldLayout)); err != nil {
			return err
		}
	}

	meta := buildLayoutMeta(rows, field)
	if err := p.meta.Set(ctx, subject, field.Name, meta); err != nil {
		return err
	}

	tags := make([]string, len(rows))
	for i, row := range rows {
		tags[i] = row.Layout
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return err
	}
	return cs.values.Set(ctx, subject, field.Name, string(b))
}

// buildLayoutMeta derives the side record from per-row flags that are not
// part of any sub-field's own value space.
func buildLayoutMeta(rows []*models.Row, field *models.FieldDefinition) *models.LayoutMeta {
	meta := &models.LayoutMeta{}
	for i, row := range rows {
		if row.Disabled {
			meta.Disabled = append(meta.Disabled, i)
		}
		if row.Label != "" && row.Label != layoutLabel(field, row.Layout) {
			if meta.Renamed == nil {
				meta.Renamed = make(map[int]string)
			}
			meta.Renamed[i] = row.Label
		}
	}
	return meta
}

func layoutLabel(field *models.FieldDefinition, tag string) string {
	if l := field.LayoutByName(tag); l != nil {
		return l.Label
	}
	return ""
}

// deleteFlexible removes every resolvable row's sub-field set, the layout
// meta record, and the tag-list marker.
func (cs *CodecService) deleteFlexible(ctx context.Context, p *pass, subject string, field *models.FieldDefinition) error {
	raw, _, err := cs.values.Get(ctx, subject, field.Name)
	if err != nil {
		return err
	}
	tags := layoutTags(raw)

	for i, tag := range tags {
		layout := field.LayoutByName(tag)
		if layout == nil {
			continue
		}
		if err := cs.deleteRow(ctx, p, subject, field.Name, i, p.sess.LayoutSubFields(layout)); err != nil {
			return err
		}
	}

	if err := p.meta.Delete(ctx, subject, field.Name); err != nil {
		return err
	}
	return cs.values.Delete(ctx, subject, field.Name)
}
