// Package codec converts container bytes to and from the uniform record
// representation. Each supported format has one Codec; callers select it
// once with For and use it for both directions of a request.
package codec

import (
	"fmt"

	"obfuscator/internal/obfuscation/format"
	"obfuscator/internal/obfuscation/models"
)

// Codec decodes a container into records and encodes records back into
// the same container layout.
type Codec interface {
	// Decode parses data. The returned Schema is nil for untyped containers.
	Decode(data []byte) (models.RecordSet, models.Schema, error)
	// Encode serializes records using schema where the container needs one.
	Encode(records models.RecordSet, schema models.Schema) ([]byte, error)
	// Name returns the codec identifier used for diagnostics.
	Name() string
}

// For returns the codec for kind.
func For(kind format.Kind) (Codec, error) {
	switch kind {
	case format.CSV:
		return CSV{}, nil
	case format.JSON:
		return JSON{}, nil
	case format.Parquet:
		return Parquet{}, nil
	default:
		return nil, models.NewError(models.KindUnsupportedFormat, "no codec for format %q", kind)
	}
}

func decodeError(format string, args ...any) error {
	return models.NewError(models.KindDecode, format, args...)
}

func wrapDecode(err error, message string) error {
	return models.WrapError(err, models.KindDecode, message)
}

func encodeError(codec string, err error) error {
	return fmt.Errorf("encode %s: %w", codec, err)
}
