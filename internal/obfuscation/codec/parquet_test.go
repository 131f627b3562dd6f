package codec

import (
	"bytes"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"obfuscator/internal/obfuscation/engine"
	"obfuscator/internal/obfuscation/models"
)

func peopleSchema() models.Schema {
	return models.Schema{
		{Name: "age", Type: models.ColumnInt64},
		{Name: "name", Type: models.ColumnText},
	}
}

func people() models.RecordSet {
	return models.RecordSet{
		models.NewRecord(models.F("age", models.Int(34)), models.F("name", models.Text("John Smith"))),
		models.NewRecord(models.F("age", models.Int(29)), models.F("name", models.Text("Jane Doe"))),
		models.NewRecord(models.F("age", models.Int(51)), models.F("name", models.Text("Ann Lee"))),
	}
}

func TestParquet_MasksNameKeepsAgeTyped(t *testing.T) {
	src, err := Parquet{}.Encode(people(), peopleSchema())
	require.NoError(t, err)

	records, schema, err := Parquet{}.Decode(src)
	require.NoError(t, err)
	assert.Equal(t, peopleSchema(), schema)

	masked, maskedSchema := engine.Obfuscate(records, models.NewFieldSet("name"), schema)
	out, err := Parquet{}.Encode(masked, maskedSchema)
	require.NoError(t, err)

	got, gotSchema, err := Parquet{}.Decode(out)
	require.NoError(t, err)
	assert.Equal(t, models.ColumnInt64, gotSchema[0].Type)
	assert.Equal(t, models.ColumnText, gotSchema[1].Type)
	require.Len(t, got, 3)
	for i, rec := range got {
		name, _ := rec.Get("name")
		assert.True(t, name.IsMask())
		age, _ := rec.Get("age")
		want, _ := people()[i].Get("age")
		assert.True(t, age.Equal(want))
		assert.Equal(t, models.KindNumber, age.Kind())
	}
}

func TestParquet_MaskedNumericColumnBecomesText(t *testing.T) {
	src, err := Parquet{}.Encode(people(), peopleSchema())
	require.NoError(t, err)
	records, schema, err := Parquet{}.Decode(src)
	require.NoError(t, err)

	masked, maskedSchema := engine.Obfuscate(records, models.NewFieldSet("age"), schema)
	out, err := Parquet{}.Encode(masked, maskedSchema)
	require.NoError(t, err)

	got, gotSchema, err := Parquet{}.Decode(out)
	require.NoError(t, err)
	assert.Equal(t, models.ColumnText, gotSchema[0].Type)
	age, _ := got[0].Get("age")
	assert.True(t, age.IsMask())
}

func TestParquet_RoundTripAllTypes(t *testing.T) {
	schema := models.Schema{
		{Name: "flag", Type: models.ColumnBool},
		{Name: "i8", Type: models.ColumnInt8},
		{Name: "i16", Type: models.ColumnInt16},
		{Name: "i32", Type: models.ColumnInt32},
		{Name: "u8", Type: models.ColumnUint8},
		{Name: "u16", Type: models.ColumnUint16},
		{Name: "u32", Type: models.ColumnUint32},
		{Name: "u64", Type: models.ColumnUint64},
		{Name: "f32", Type: models.ColumnFloat32},
		{Name: "f64", Type: models.ColumnFloat64},
		{Name: "note", Type: models.ColumnText, Nullable: true},
	}
	records := models.RecordSet{
		models.NewRecord(
			models.F("flag", models.Bool(true)),
			models.F("i8", models.Int(-8)),
			models.F("i16", models.Int(-1600)),
			models.F("i32", models.Int(320000)),
			models.F("u8", models.Uint(8)),
			models.F("u16", models.Uint(1600)),
			models.F("u32", models.Uint(4000000000)),
			models.F("u64", models.Uint(18446744073709551615)),
			models.F("f32", models.Float32(1.5)),
			models.F("f64", models.Float(2.25)),
			models.F("note", models.Null()),
		),
	}

	out, err := Parquet{}.Encode(records, schema)
	require.NoError(t, err)
	got, gotSchema, err := Parquet{}.Decode(out)
	require.NoError(t, err)

	assert.Equal(t, schema.Names(), gotSchema.Names())
	for i := range schema {
		assert.Equal(t, schema[i].Type, gotSchema[i].Type, schema[i].Name)
	}
	assert.True(t, got.Equal(records), "got %v", got)
}

func TestParquet_EmptyFileKeepsSchema(t *testing.T) {
	out, err := Parquet{}.Encode(models.RecordSet{}, peopleSchema())
	require.NoError(t, err)

	records, schema, err := Parquet{}.Decode(out)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, peopleSchema().Names(), schema.Names())
}

func TestParquet_DecodeRejectsGarbage(t *testing.T) {
	for name, data := range map[string][]byte{
		"empty":     nil,
		"csv bytes": []byte("id,name\n1,a\n"),
		"bad magic": append([]byte("PAR1"), bytes.Repeat([]byte{0xff}, 32)...),
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := Parquet{}.Decode(data)
			require.Error(t, err)
			assert.True(t, models.IsKind(err, models.KindDecode))
		})
	}
}

func TestParquet_DecodeRejectsUnsupportedColumn(t *testing.T) {
	as := arrow.NewSchema([]arrow.Field{{Name: "joined", Type: arrow.FixedWidthTypes.Date32}}, nil)
	mem := memory.NewGoAllocator()
	b := array.NewRecordBuilder(mem, as)
	defer b.Release()
	b.Field(0).(*array.Date32Builder).Append(arrow.Date32(19000))
	rec := b.NewRecord()
	defer rec.Release()
	tbl := array.NewTableFromRecords(as, []arrow.Record{rec})
	defer tbl.Release()

	var buf bytes.Buffer
	require.NoError(t, pqarrow.WriteTable(tbl, &buf, 1024, parquet.NewWriterProperties(), pqarrow.DefaultWriterProps()))

	_, _, err := Parquet{}.Decode(buf.Bytes())
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindDecode))
}

func TestParquet_EncodeRejectsTypeMismatch(t *testing.T) {
	records := models.RecordSet{models.NewRecord(models.F("age", models.Text("old")))}
	_, err := Parquet{}.Encode(records, models.Schema{{Name: "age", Type: models.ColumnInt64}})
	require.Error(t, err)
	assert.Equal(t, models.Kind(""), models.KindOf(err))
}

func TestParquet_EncodeRejectsOutOfRangeNumbers(t *testing.T) {
	cases := map[string]struct {
		typ   models.ColumnType
		value models.Value
	}{
		"int8 overflow":     {models.ColumnInt8, models.Int(300)},
		"uint16 negative":   {models.ColumnUint16, models.Int(-1)},
		"fraction in int32": {models.ColumnInt32, models.Float(1.5)},
		"bool in float64":   {models.ColumnFloat64, models.Bool(true)},
		"float32 overflow":  {models.ColumnFloat32, models.Float(1e300)},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			records := models.RecordSet{models.NewRecord(models.F("n", tc.value))}
			_, err := Parquet{}.Encode(records, models.Schema{{Name: "n", Type: tc.typ}})
			require.Error(t, err)
		})
	}
}
