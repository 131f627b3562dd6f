package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"obfuscator/internal/obfuscation/models"
)

func students() models.RecordSet {
	return models.RecordSet{
		models.NewRecord(
			models.F("id", models.Int(1)),
			models.F("name", models.Text("John Smith")),
			models.F("email", models.Text("j@x.com")),
		),
		models.NewRecord(
			models.F("id", models.Int(2)),
			models.F("name", models.Text("Jane Doe")),
			models.F("email", models.Text("jd@x.com")),
		),
	}
}

func TestObfuscate_MasksRequestedFields(t *testing.T) {
	in := students()
	out, schema := Obfuscate(in, models.NewFieldSet("name", "email"), nil)

	require.Len(t, out, len(in))
	assert.Nil(t, schema)
	for i, rec := range out {
		assert.Equal(t, in[i].Names(), rec.Names())
		for _, name := range []string{"name", "email"} {
			v, ok := rec.Get(name)
			require.True(t, ok)
			assert.True(t, v.IsMask(), "field %s of row %d", name, i)
		}
		id, _ := rec.Get("id")
		orig, _ := in[i].Get("id")
		assert.True(t, id.Equal(orig))
	}
}

func TestObfuscate_DoesNotModifyInput(t *testing.T) {
	in := students()
	schema := models.Schema{{Name: "id", Type: models.ColumnInt64}, {Name: "name", Type: models.ColumnText}}
	_, _ = Obfuscate(in, models.NewFieldSet("name", "id"), schema)

	assert.True(t, in.Equal(students()))
	assert.Equal(t, models.ColumnInt64, schema[0].Type)
}

func TestObfuscate_FieldIsolation(t *testing.T) {
	in := models.RecordSet{
		models.NewRecord(
			models.F("id", models.Uint(9)),
			models.F("active", models.Bool(true)),
			models.F("score", models.Float(0.75)),
			models.F("notes", models.Null()),
			models.F("phone", models.Text("555-0100")),
		),
	}
	out, _ := Obfuscate(in, models.NewFieldSet("phone"), nil)

	for _, f := range in[0] {
		got, ok := out[0].Get(f.Name)
		require.True(t, ok)
		if f.Name == "phone" {
			assert.True(t, got.IsMask())
			continue
		}
		assert.True(t, got.Equal(f.Value), "field %s changed", f.Name)
		assert.Equal(t, f.Value.Kind(), got.Kind())
	}
}

func TestObfuscate_MasksNullValues(t *testing.T) {
	in := models.RecordSet{models.NewRecord(models.F("email", models.Null()))}
	out, _ := Obfuscate(in, models.NewFieldSet("email"), nil)
	v, _ := out[0].Get("email")
	assert.True(t, v.IsMask())
}

func TestObfuscate_AbsentFieldIsNoOp(t *testing.T) {
	in := students()
	out, _ := Obfuscate(in, models.NewFieldSet("phone"), nil)
	assert.True(t, out.Equal(in))
}

func TestObfuscate_Idempotent(t *testing.T) {
	fields := models.NewFieldSet("name", "email", "missing")
	schema := models.Schema{
		{Name: "id", Type: models.ColumnInt64},
		{Name: "name", Type: models.ColumnText},
		{Name: "email", Type: models.ColumnText},
	}
	once, onceSchema := Obfuscate(students(), fields, schema)
	twice, twiceSchema := Obfuscate(once, fields, onceSchema)

	assert.True(t, twice.Equal(once))
	assert.Equal(t, onceSchema, twiceSchema)
}

func TestObfuscate_SchemaTypesBecomeText(t *testing.T) {
	schema := models.Schema{
		{Name: "age", Type: models.ColumnInt32},
		{Name: "salary", Type: models.ColumnFloat64, Nullable: true},
	}
	in := models.RecordSet{
		models.NewRecord(models.F("age", models.Int(30)), models.F("salary", models.Float(51000.5))),
	}
	out, outSchema := Obfuscate(in, models.NewFieldSet("salary"), schema)

	assert.Equal(t, models.ColumnInt32, outSchema[0].Type)
	assert.Equal(t, models.ColumnText, outSchema[1].Type)
	assert.True(t, outSchema[1].Nullable)
	v, _ := out[0].Get("salary")
	assert.True(t, v.IsMask())
}

func TestObfuscate_HeterogeneousRecords(t *testing.T) {
	in := models.RecordSet{
		models.NewRecord(models.F("id", models.Int(1)), models.F("email", models.Text("a@x.com"))),
		models.NewRecord(models.F("id", models.Int(2))),
	}
	out, _ := Obfuscate(in, models.NewFieldSet("email"), nil)

	require.Len(t, out, 2)
	assert.Len(t, out[1], 1)
	assert.False(t, out[1].Has("email"))
}

func TestMatched(t *testing.T) {
	fields := models.NewFieldSet("email", "phone", "name")
	matched := Matched(students(), nil, fields)
	assert.Equal(t, []string{"name", "email"}, matched)
	assert.Equal(t, []string{"phone"}, Unmatched(fields, matched))

	schema := models.Schema{{Name: "phone", Type: models.ColumnText}}
	assert.Equal(t, []string{"phone"}, Matched(nil, schema, models.NewFieldSet("phone")))
	assert.Empty(t, Matched(students(), nil, models.NewFieldSet()))
}
