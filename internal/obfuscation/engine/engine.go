// Package engine masks PII fields in decoded record sets. It has no
// knowledge of the container the records came from.
package engine

import "obfuscator/internal/obfuscation/models"

// Obfuscate returns copies of records and schema in which every field
// named in fields holds the mask constant. Names missing from a record are
// skipped for that record. Masked schema columns are declared text; all
// other values and declarations are unchanged. Inputs are not modified.
func Obfuscate(records models.RecordSet, fields models.FieldSet, schema models.Schema) (models.RecordSet, models.Schema) {
	out := records.Clone()
	mask := models.MaskValue()
	for _, rec := range out {
		for i := range rec {
			if fields.Contains(rec[i].Name) {
				rec[i].Value = mask
			}
		}
	}

	outSchema := schema.Clone()
	for i := range outSchema {
		if fields.Contains(outSchema[i].Name) {
			outSchema[i].Type = models.ColumnText
		}
	}
	return out, outSchema
}

// Matched returns the requested names that exist as a schema column or as
// a key of at least one record, in first-seen order.
func Matched(records models.RecordSet, schema models.Schema, fields models.FieldSet) []string {
	seen := make(map[string]struct{}, len(fields))
	var matched []string
	add := func(name string) {
		if !fields.Contains(name) {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		matched = append(matched, name)
	}
	for _, c := range schema {
		add(c.Name)
	}
	for _, rec := range records {
		if len(seen) == len(fields) {
			break
		}
		for _, f := range rec {
			add(f.Name)
		}
	}
	return matched
}

// Unmatched returns the requested names that Matched did not find, sorted.
func Unmatched(fields models.FieldSet, matched []string) []string {
	hit := models.NewFieldSet(matched...)
	var out []string
	for _, name := range fields.Names() {
		if !hit.Contains(name) {
			out = append(out, name)
		}
	}
	return out
}
