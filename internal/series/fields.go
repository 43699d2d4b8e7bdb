// file: internal/series/fields.go
// version: 1.0.0
// guid: 430e0540-c74d-48a2-a81c-05a7d00e888f

package series

import "github.com/jdfalk/mbseries/internal/models"

// FieldConfig says where a series attribute is stored on an album and
// whether it is written at all.
type FieldConfig struct {
	FieldName string `mapstructure:"field_name" yaml:"field_name" validate:"required"`
	Write     bool   `mapstructure:"write" yaml:"write"`
}

// FieldsConfig holds the three series attributes the plugin manages.
type FieldsConfig struct {
	ID     FieldConfig `mapstructure:"id" yaml:"id"`
	Name   FieldConfig `mapstructure:"name" yaml:"name"`
	Volume FieldConfig `mapstructure:"volume" yaml:"volume"`
}

// DefaultFields mirrors the stock configuration.
func DefaultFields() FieldsConfig {
	return FieldsConfig{
		ID:     FieldConfig{FieldName: "mb_seriesid", Write: true},
		Name:   FieldConfig{FieldName: "series", Write: true},
		Volume: FieldConfig{FieldName: "volume", Write: true},
	}
}

type fieldBinding struct {
	cfg   FieldConfig
	value func(MemberEntry) string
}

func (f FieldsConfig) bindings() []fieldBinding {
	return []fieldBinding{
		{f.ID, func(e MemberEntry) string { return e.SeriesID }},
		{f.Name, func(e MemberEntry) string { return e.SeriesName }},
		{f.Volume, func(e MemberEntry) string { return e.Order }},
	}
}

// ApplyFields copies the write-enabled series attributes of entry onto the
// record and returns the names of the fields whose value changed. Empty
// values never clear an existing field.
func ApplyFields(rec models.Record, entry MemberEntry, fields FieldsConfig) []string {
	var changed []string
	for _, b := range fields.bindings() {
		if !b.cfg.Write {
			continue
		}
		v := b.value(entry)
		if v == "" {
			continue
		}
		if rec.Get(b.cfg.FieldName) != v {
			changed = append(changed, b.cfg.FieldName)
		}
		rec.Set(b.cfg.FieldName, v)
	}
	return changed
}
