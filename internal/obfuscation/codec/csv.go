package codec

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"obfuscator/internal/obfuscation/models"
)

// CSV reads a header row followed by data rows. All values are text; the
// header is returned as an all-text Schema so that files without data rows
// keep their header when encoded again.
//
// Bare quotes inside unquoted fields are taken literally. Line breaks inside
// quoted fields keep their original bytes, including CRLF.
type CSV struct{}

func (CSV) Name() string { return "csv" }

func (CSV) Decode(data []byte) (models.RecordSet, models.Schema, error) {
	r := csv.NewReader(bytes.NewReader(data))
	// Zero makes the reader enforce the header's field count on every row.
	r.FieldsPerRecord = 0
	r.LazyQuotes = true
	lines := lineOffsets(data)

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, decodeError("csv has no header row")
	}
	if err != nil {
		return nil, nil, wrapDecode(err, "read csv header")
	}
	restoreLineBreaks(r, data, lines, header)

	schema := make(models.Schema, len(header))
	for i, name := range header {
		if schema[:i].Index(name) >= 0 {
			return nil, nil, decodeError("csv header repeats column %q", name)
		}
		schema[i] = models.Column{Name: name, Type: models.ColumnText}
	}

	records := models.RecordSet{}
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, wrapDecode(err, "read csv row")
		}
		restoreLineBreaks(r, data, lines, row)
		rec := make(models.Record, len(header))
		for i, cell := range row {
			rec[i] = models.F(header[i], models.Text(cell))
		}
		records = append(records, rec)
	}
	return records, schema, nil
}

// restoreLineBreaks replaces multi-line cells of the record just read with
// their source text. encoding/csv folds CRLF inside quoted fields to LF.
func restoreLineBreaks(r *csv.Reader, data []byte, lines []int, row []string) {
	for i, cell := range row {
		if !strings.Contains(cell, "\n") {
			continue
		}
		line, col := r.FieldPos(i)
		if line < 1 || line > len(lines) {
			continue
		}
		raw, ok := quotedField(data, lines[line-1]+col-1)
		if ok && raw != cell && strings.ReplaceAll(raw, "\r\n", "\n") == cell {
			row[i] = raw
		}
	}
}

// lineOffsets returns the byte offset at which each line of data starts.
func lineOffsets(data []byte) []int {
	offsets := []int{0}
	for i, b := range data {
		if b == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

// quotedField unescapes the quoted field opening at data[off].
func quotedField(data []byte, off int) (string, bool) {
	if off < 0 || off >= len(data) || data[off] != '"' {
		return "", false
	}
	var b strings.Builder
	for i := off + 1; i < len(data); i++ {
		if data[i] != '"' {
			b.WriteByte(data[i])
			continue
		}
		if i+1 < len(data) && data[i+1] == '"' {
			b.WriteByte('"')
			i++
			continue
		}
		return b.String(), true
	}
	return "", false
}

func (c CSV) Encode(records models.RecordSet, schema models.Schema) ([]byte, error) {
	header := schema.Names()
	if schema == nil && len(records) > 0 {
		header = records[0].Names()
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, encodeError(c.Name(), err)
	}
	row := make([]string, len(header))
	for _, rec := range records {
		for i, name := range header {
			v, _ := rec.Get(name)
			row[i] = v.String()
		}
		if err := w.Write(row); err != nil {
			return nil, encodeError(c.Name(), err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, encodeError(c.Name(), err)
	}
	return buf.Bytes(), nil
}
