package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"obfuscator/internal/obfuscation/models"
)

// JSON reads a single top-level array of flat objects. Objects are walked
// token by token so each record keeps the key order of the source.
type JSON struct{}

func (JSON) Name() string { return "json" }

func (JSON) Decode(data []byte) (models.RecordSet, models.Schema, error) {
	// encoding/json would substitute U+FFFD for invalid bytes.
	if !utf8.Valid(data) {
		return nil, nil, decodeError("json document is not valid utf-8")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return nil, nil, decodeError("json document is empty")
	}
	if err != nil {
		return nil, nil, wrapDecode(err, "read json")
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, nil, decodeError("json top-level value is not an array")
	}

	records := models.RecordSet{}
	for dec.More() {
		rec, err := decodeObject(dec, len(records))
		if err != nil {
			return nil, nil, err
		}
		records = append(records, rec)
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, wrapDecode(err, "read json array end")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, nil, decodeError("unexpected data after json array")
	}
	return records, nil, nil
}

func decodeObject(dec *json.Decoder, index int) (models.Record, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, wrapDecode(err, "read json element")
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, decodeError("json element %d is not an object", index)
	}

	rec := models.Record{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, wrapDecode(err, "read json key")
		}
		key, _ := keyTok.(string)

		valTok, err := dec.Token()
		if err != nil {
			return nil, wrapDecode(err, "read json value")
		}
		v, err := scalar(valTok)
		if err != nil {
			return nil, models.WrapError(err, models.KindDecode, fmt.Sprintf("json element %d key %q", index, key))
		}
		if !rec.Set(key, v) {
			rec = append(rec, models.F(key, v))
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, wrapDecode(err, "read json object end")
	}
	return rec, nil
}

func scalar(tok json.Token) (models.Value, error) {
	switch t := tok.(type) {
	case nil:
		return models.Null(), nil
	case string:
		return models.Text(t), nil
	case bool:
		return models.Bool(t), nil
	case json.Number:
		return models.ParseNumber(t.String())
	case json.Delim:
		return models.Value{}, errors.New("nested objects and arrays are not supported")
	default:
		return models.Value{}, errors.New("unexpected json token")
	}
}

func (c JSON) Encode(records models.RecordSet, _ models.Schema) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, rec := range records {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for j, f := range rec {
			if j > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(f.Name)
			if err != nil {
				return nil, encodeError(c.Name(), err)
			}
			val, err := f.Value.MarshalJSON()
			if err != nil {
				return nil, encodeError(c.Name(), err)
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(val)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}
