package handler

import (
	"bytes"
	"encoding/json"
	"fmt"

	"obfuscator/internal/obfuscation/models"
)

// MaxBatchSize caps the number of envelopes in one batch call.
const MaxBatchSize = 100

// BatchRequest is the body of POST /v1/obfuscate/batch.
type BatchRequest struct {
	Requests []models.Envelope `json:"requests"`
}

func parseBatchRequest(body []byte) ([]models.Request, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	var br BatchRequest
	if err := dec.Decode(&br); err != nil {
		return nil, models.WrapError(err, models.KindInvalidRequest, "decode batch request")
	}
	switch {
	case len(br.Requests) == 0:
		return nil, models.NewError(models.KindInvalidRequest, "batch has no requests")
	case len(br.Requests) > MaxBatchSize:
		return nil, models.NewError(models.KindInvalidRequest, "batch has %d requests, at most %d allowed", len(br.Requests), MaxBatchSize)
	}

	reqs := make([]models.Request, len(br.Requests))
	for i, env := range br.Requests {
		req, err := env.ToRequest()
		if err != nil {
			return nil, fmt.Errorf("batch request %d: %w", i, err)
		}
		reqs[i] = req
	}
	return reqs, nil
}
