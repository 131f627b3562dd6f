package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Locator identifies an object as scheme://container/path.
type Locator struct {
	Scheme    string
	Container string
	Path      string
}

func (l Locator) String() string {
	return l.Scheme + "://" + l.Container + "/" + l.Path
}

// Request asks for the PII fields of one source object to be masked.
type Request struct {
	Locator   string
	PIIFields FieldSet
	// Destination, when set, is where the obfuscated bytes are written.
	Destination string
}

// Envelope is the wire form of a Request.
type Envelope struct {
	FileToObfuscate *string   `json:"file_to_obfuscate"`
	PIIFields       *[]string `json:"pii_fields"`
	Destination     *string   `json:"destination,omitempty"`
}

// ToRequest validates required keys and converts the envelope.
func (e Envelope) ToRequest() (Request, error) {
	if e.FileToObfuscate == nil {
		return Request{}, NewError(KindInvalidRequest, "missing key file_to_obfuscate")
	}
	if e.PIIFields == nil {
		return Request{}, NewError(KindInvalidRequest, "missing key pii_fields")
	}
	req := Request{
		Locator:   *e.FileToObfuscate,
		PIIFields: NewFieldSet(*e.PIIFields...),
	}
	if e.Destination != nil {
		req.Destination = *e.Destination
	}
	return req, nil
}

// ParseRequest decodes a JSON request envelope. Missing keys, wrong value
// types and trailing data fail with KindInvalidRequest.
func ParseRequest(data []byte) (Request, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var env Envelope
	if err := dec.Decode(&env); err != nil {
		return Request{}, WrapError(err, KindInvalidRequest, "decode request envelope")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Request{}, NewError(KindInvalidRequest, "unexpected data after request envelope")
	}
	return env.ToRequest()
}

// String renders the request without field values for logs.
func (r Request) String() string {
	return fmt.Sprintf("source=%s fields=%v destination=%s", r.Locator, r.PIIFields.Names(), r.Destination)
}
