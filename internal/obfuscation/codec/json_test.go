package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"obfuscator/internal/obfuscation/engine"
	"obfuscator/internal/obfuscation/models"
)

func TestJSON_MasksArrayOfObjectsPreservingOrder(t *testing.T) {
	input := `[{"id":1,"name":"John Smith","email":"j@x.com"},{"id":2,"name":"Jane Doe","email":"jd@x.com"}]`
	records, schema, err := JSON{}.Decode([]byte(input))
	require.NoError(t, err)
	assert.Nil(t, schema)
	require.Len(t, records, 2)

	masked, _ := engine.Obfuscate(records, models.NewFieldSet("name", "email"), nil)
	out, err := JSON{}.Encode(masked, nil)
	require.NoError(t, err)

	assert.Equal(t, `[{"id":1,"name":"***","email":"***"},{"id":2,"name":"***","email":"***"}]`, string(out))
}

func TestJSON_PreservesKeyOrderAndScalars(t *testing.T) {
	input := `[{"z":1.0,"a":true,"m":null,"big":18446744073709551615,"s":"x"}]`
	records, _, err := JSON{}.Decode([]byte(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a", "m", "big", "s"}, records[0].Names())

	out, err := JSON{}.Encode(records, nil)
	require.NoError(t, err)
	assert.Equal(t, input, string(out))

	again, _, err := JSON{}.Decode(out)
	require.NoError(t, err)
	assert.True(t, again.Equal(records))
}

func TestJSON_EmptyArray(t *testing.T) {
	records, _, err := JSON{}.Decode([]byte(" [ ] \n"))
	require.NoError(t, err)
	assert.Empty(t, records)

	out, err := JSON{}.Encode(records, nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(out))
}

func TestJSON_FieldAbsentLeavesDataIdentical(t *testing.T) {
	input := `[{"id":1,"info":"some data"}]`
	records, _, err := JSON{}.Decode([]byte(input))
	require.NoError(t, err)

	masked, _ := engine.Obfuscate(records, models.NewFieldSet("phone"), nil)
	out, err := JSON{}.Encode(masked, nil)
	require.NoError(t, err)
	assert.Equal(t, input, string(out))
}

func TestJSON_DecodeErrors(t *testing.T) {
	cases := map[string]string{
		"empty":             "",
		"object top level":  `{"id":1}`,
		"scalar element":    `[1,2]`,
		"nested object":     `[{"id":1,"address":{"city":"Leeds"}}]`,
		"nested array":      `[{"id":1,"tags":["a"]}]`,
		"trailing data":     `[{"id":1}] [{"id":2}]`,
		"truncated":         `[{"id":1}`,
		"invalid syntax":    `[{"id":}]`,
		"invalid utf-8":     "[{\"id\":1,\"bio\":\"caf\xe9\",\"name\":\"x\"}]",
		"invalid utf-8 key": "[{\"b\xffio\":1}]",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := JSON{}.Decode([]byte(input))
			require.Error(t, err)
			assert.True(t, models.IsKind(err, models.KindDecode), "got %v", err)
		})
	}
}

func TestJSON_KeepsMultibyteText(t *testing.T) {
	input := `[{"bio":"café ☕","name":"Zoë"}]`
	records, _, err := JSON{}.Decode([]byte(input))
	require.NoError(t, err)

	masked, _ := engine.Obfuscate(records, models.NewFieldSet("name"), nil)
	out, err := JSON{}.Encode(masked, nil)
	require.NoError(t, err)
	assert.Equal(t, `[{"bio":"café ☕","name":"***"}]`, string(out))
}
