package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecord_SetNeverAdds(t *testing.T) {
	r := NewRecord(F("id", Int(1)), F("name", Text("Jane Doe")))

	assert.True(t, r.Set("name", MaskValue()))
	assert.False(t, r.Set("phone", MaskValue()))
	assert.Equal(t, []string{"id", "name"}, r.Names())

	v, ok := r.Get("name")
	assert.True(t, ok)
	assert.True(t, v.IsMask())
	assert.False(t, r.Has("phone"))
}

func TestRecordSet_CloneIsIndependent(t *testing.T) {
	rs := RecordSet{NewRecord(F("email", Text("jd@x.com")))}
	cp := rs.Clone()
	cp[0].Set("email", MaskValue())

	v, _ := rs[0].Get("email")
	assert.Equal(t, "jd@x.com", v.String())
	assert.False(t, rs.Equal(cp))
	assert.Nil(t, RecordSet(nil).Clone())
}

func TestSchema(t *testing.T) {
	s := Schema{{Name: "age", Type: ColumnInt64}, {Name: "name", Type: ColumnText, Nullable: true}}
	assert.Equal(t, 1, s.Index("name"))
	assert.Equal(t, -1, s.Index("email"))
	assert.Equal(t, []string{"age", "name"}, s.Names())

	cp := s.Clone()
	cp[0].Type = ColumnText
	assert.Equal(t, ColumnInt64, s[0].Type)
	assert.Nil(t, Schema(nil).Clone())
}

func TestFieldSet(t *testing.T) {
	fs := NewFieldSet("name", "email", "name")
	assert.Len(t, fs, 2)
	assert.True(t, fs.Contains("email"))
	assert.False(t, fs.Contains("id"))
	assert.Equal(t, []string{"email", "name"}, fs.Names())
}
