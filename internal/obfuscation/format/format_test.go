package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"obfuscator/internal/obfuscation/models"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		path string
		want Kind
	}{
		{"new_data/file1.csv", CSV},
		{"exports/FILE.CSV", CSV},
		{"a/b/records.json", JSON},
		{"warehouse/part-0001.Parquet", Parquet},
		{"archive.tar/data.json", JSON},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			got, err := Detect(tc.path)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDetect_Unsupported(t *testing.T) {
	for _, p := range []string{"notes.txt", "data", "dir.csv/file", "file.csv.gz", "trailing."} {
		t.Run(p, func(t *testing.T) {
			_, err := Detect(p)
			require.Error(t, err)
			assert.True(t, models.IsKind(err, models.KindUnsupportedFormat))
		})
	}
}

func TestKind_ContentType(t *testing.T) {
	assert.Equal(t, "text/csv; charset=utf-8", CSV.ContentType())
	assert.Equal(t, "application/json", JSON.ContentType())
	assert.Equal(t, "application/vnd.apache.parquet", Parquet.ContentType())
	assert.Equal(t, "application/octet-stream", Kind("xml").ContentType())
}
