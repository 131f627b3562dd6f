package codec

import (
	"bytes"
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"obfuscator/internal/obfuscation/models"
)

const parquetRowGroupSize = 128 * 1024

// Parquet reads and writes self-describing columnar files. Decoding keeps
// every column's declared type; encoding rebuilds the file from the Schema
// alone, so no page or encoding choices of the source survive.
type Parquet struct{}

func (Parquet) Name() string { return "parquet" }

func (Parquet) Decode(data []byte) (records models.RecordSet, schema models.Schema, err error) {
	// The reader panics on some truncated footers.
	defer func() {
		if r := recover(); r != nil {
			records, schema = nil, nil
			err = decodeError("parquet file is unreadable: %v", r)
		}
	}()

	rdr, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, wrapDecode(err, "open parquet file")
	}
	defer rdr.Close()

	mem := memory.NewGoAllocator()
	fr, err := pqarrow.NewFileReader(rdr, pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, nil, wrapDecode(err, "read parquet schema")
	}
	tbl, err := fr.ReadTable(context.Background())
	if err != nil {
		return nil, nil, wrapDecode(err, "read parquet data")
	}
	defer tbl.Release()

	fields := tbl.Schema().Fields()
	schema = make(models.Schema, len(fields))
	for i, f := range fields {
		typ, ok := columnType(f.Type)
		if !ok {
			return nil, nil, decodeError("parquet column %q has unsupported type %s", f.Name, f.Type)
		}
		schema[i] = models.Column{Name: f.Name, Type: typ, Nullable: f.Nullable}
	}

	numRows := int(tbl.NumRows())
	records = make(models.RecordSet, numRows)
	for r := range records {
		records[r] = make(models.Record, 0, len(schema))
	}
	for i, col := range schema {
		row := 0
		for _, chunk := range tbl.Column(i).Data().Chunks() {
			for j := 0; j < chunk.Len(); j++ {
				if row >= numRows {
					return nil, nil, decodeError("parquet column %q has more values than rows", col.Name)
				}
				v, err := valueAt(chunk, j)
				if err != nil {
					return nil, nil, models.WrapError(err, models.KindDecode, fmt.Sprintf("parquet column %q", col.Name))
				}
				records[row] = append(records[row], models.F(col.Name, v))
				row++
			}
		}
		if row != numRows {
			return nil, nil, decodeError("parquet column %q has %d values for %d rows", col.Name, row, numRows)
		}
	}
	return records, schema, nil
}

func (p Parquet) Encode(records models.RecordSet, schema models.Schema) ([]byte, error) {
	if len(schema) == 0 {
		return nil, encodeError(p.Name(), fmt.Errorf("parquet output needs at least one column"))
	}

	fields := make([]arrow.Field, len(schema))
	for i, col := range schema {
		dt, err := arrowType(col.Type)
		if err != nil {
			return nil, encodeError(p.Name(), err)
		}
		fields[i] = arrow.Field{Name: col.Name, Type: dt, Nullable: col.Nullable}
	}
	as := arrow.NewSchema(fields, nil)

	mem := memory.NewGoAllocator()
	b := array.NewRecordBuilder(mem, as)
	defer b.Release()

	for i, col := range schema {
		fb := b.Field(i)
		for r, rec := range records {
			v, _ := rec.Get(col.Name)
			if v.IsNull() {
				if !col.Nullable {
					return nil, encodeError(p.Name(), fmt.Errorf("row %d: required column %q is null", r, col.Name))
				}
				fb.AppendNull()
				continue
			}
			if err := appendValue(fb, v); err != nil {
				return nil, encodeError(p.Name(), fmt.Errorf("row %d column %q: %w", r, col.Name, err))
			}
		}
	}

	rec := b.NewRecord()
	defer rec.Release()
	tbl := array.NewTableFromRecords(as, []arrow.Record{rec})
	defer tbl.Release()

	props := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Snappy),
		parquet.WithAllocator(mem),
	)
	var buf bytes.Buffer
	if err := pqarrow.WriteTable(tbl, &buf, parquetRowGroupSize, props, pqarrow.DefaultWriterProps()); err != nil {
		return nil, encodeError(p.Name(), err)
	}
	return buf.Bytes(), nil
}

func columnType(dt arrow.DataType) (models.ColumnType, bool) {
	switch dt.ID() {
	case arrow.STRING, arrow.LARGE_STRING:
		return models.ColumnText, true
	case arrow.BOOL:
		return models.ColumnBool, true
	case arrow.INT8:
		return models.ColumnInt8, true
	case arrow.INT16:
		return models.ColumnInt16, true
	case arrow.INT32:
		return models.ColumnInt32, true
	case arrow.INT64:
		return models.ColumnInt64, true
	case arrow.UINT8:
		return models.ColumnUint8, true
	case arrow.UINT16:
		return models.ColumnUint16, true
	case arrow.UINT32:
		return models.ColumnUint32, true
	case arrow.UINT64:
		return models.ColumnUint64, true
	case arrow.FLOAT32:
		return models.ColumnFloat32, true
	case arrow.FLOAT64:
		return models.ColumnFloat64, true
	default:
		return "", false
	}
}

func arrowType(t models.ColumnType) (arrow.DataType, error) {
	switch t {
	case models.ColumnText:
		return arrow.BinaryTypes.String, nil
	case models.ColumnBool:
		return arrow.FixedWidthTypes.Boolean, nil
	case models.ColumnInt8:
		return arrow.PrimitiveTypes.Int8, nil
	case models.ColumnInt16:
		return arrow.PrimitiveTypes.Int16, nil
	case models.ColumnInt32:
		return arrow.PrimitiveTypes.Int32, nil
	case models.ColumnInt64:
		return arrow.PrimitiveTypes.Int64, nil
	case models.ColumnUint8:
		return arrow.PrimitiveTypes.Uint8, nil
	case models.ColumnUint16:
		return arrow.PrimitiveTypes.Uint16, nil
	case models.ColumnUint32:
		return arrow.PrimitiveTypes.Uint32, nil
	case models.ColumnUint64:
		return arrow.PrimitiveTypes.Uint64, nil
	case models.ColumnFloat32:
		return arrow.PrimitiveTypes.Float32, nil
	case models.ColumnFloat64:
		return arrow.PrimitiveTypes.Float64, nil
	default:
		return nil, fmt.Errorf("unknown column type %q", t)
	}
}

func valueAt(arr arrow.Array, i int) (models.Value, error) {
	if arr.IsNull(i) {
		return models.Null(), nil
	}
	switch a := arr.(type) {
	case *array.String:
		return models.Text(a.Value(i)), nil
	case *array.LargeString:
		return models.Text(a.Value(i)), nil
	case *array.Boolean:
		return models.Bool(a.Value(i)), nil
	case *array.Int8:
		return models.Int(int64(a.Value(i))), nil
	case *array.Int16:
		return models.Int(int64(a.Value(i))), nil
	case *array.Int32:
		return models.Int(int64(a.Value(i))), nil
	case *array.Int64:
		return models.Int(a.Value(i)), nil
	case *array.Uint8:
		return models.Uint(uint64(a.Value(i))), nil
	case *array.Uint16:
		return models.Uint(uint64(a.Value(i))), nil
	case *array.Uint32:
		return models.Uint(uint64(a.Value(i))), nil
	case *array.Uint64:
		return models.Uint(a.Value(i)), nil
	case *array.Float32:
		return models.Float32(a.Value(i)), nil
	case *array.Float64:
		return models.Float(a.Value(i)), nil
	default:
		return models.Value{}, fmt.Errorf("unsupported array type %s", arr.DataType())
	}
}

func appendValue(fb array.Builder, v models.Value) error {
	switch b := fb.(type) {
	case *array.StringBuilder:
		b.Append(v.String())
	case *array.BooleanBuilder:
		x, ok := v.Bool()
		if !ok {
			return fmt.Errorf("%s value in bool column", v.Kind())
		}
		b.Append(x)
	case *array.Int8Builder:
		x, err := v.IntN(8)
		if err != nil {
			return err
		}
		b.Append(int8(x))
	case *array.Int16Builder:
		x, err := v.IntN(16)
		if err != nil {
			return err
		}
		b.Append(int16(x))
	case *array.Int32Builder:
		x, err := v.IntN(32)
		if err != nil {
			return err
		}
		b.Append(int32(x))
	case *array.Int64Builder:
		x, err := v.IntN(64)
		if err != nil {
			return err
		}
		b.Append(x)
	case *array.Uint8Builder:
		x, err := v.UintN(8)
		if err != nil {
			return err
		}
		b.Append(uint8(x))
	case *array.Uint16Builder:
		x, err := v.UintN(16)
		if err != nil {
			return err
		}
		b.Append(uint16(x))
	case *array.Uint32Builder:
		x, err := v.UintN(32)
		if err != nil {
			return err
		}
		b.Append(uint32(x))
	case *array.Uint64Builder:
		x, err := v.UintN(64)
		if err != nil {
			return err
		}
		b.Append(x)
	case *array.Float32Builder:
		x, err := v.FloatN(32)
		if err != nil {
			return err
		}
		b.Append(float32(x))
	case *array.Float64Builder:
		x, err := v.FloatN(64)
		if err != nil {
			return err
		}
		b.Append(x)
	default:
		return fmt.Errorf("unsupported builder %T", fb)
	}
	return nil
}
