package handler

import (
	"errors"
	"net/http"
	"time"

	"obfuscator/internal/obfuscation/models"
	"obfuscator/internal/obfuscation/service"
	dErrors "obfuscator/pkg/domain-errors"
	"obfuscator/pkg/platform/audit"
	"obfuscator/pkg/platform/httputil"
)

// Summary describes an obfuscation whose output was written to a destination.
type Summary struct {
	Source       string   `json:"source"`
	Destination  string   `json:"destination"`
	Format       string   `json:"format"`
	Rows         int      `json:"rows"`
	MaskedFields []string `json:"masked_fields"`
	Bytes        int      `json:"bytes"`
}

// BatchItem is one entry of a BatchResponse. Error fields are set only for
// failed items.
type BatchItem struct {
	Index            int      `json:"index"`
	Source           string   `json:"source"`
	Destination      string   `json:"destination,omitempty"`
	Status           int      `json:"status"`
	Rows             int      `json:"rows,omitempty"`
	MaskedFields     []string `json:"masked_fields,omitempty"`
	Error            string   `json:"error,omitempty"`
	ErrorDescription string   `json:"error_description,omitempty"`
}

type BatchResponse struct {
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Results   []BatchItem `json:"results"`
}

func toSummary(req models.Request, res *service.Result) Summary {
	return Summary{
		Source:       req.Locator,
		Destination:  res.Destination,
		Format:       string(res.Format),
		Rows:         res.Rows,
		MaskedFields: orEmpty(res.MaskedFields),
		Bytes:        len(res.Bytes),
	}
}

func toBatchItem(req models.Request, br service.BatchResult) BatchItem {
	item := BatchItem{
		Index:       br.Index,
		Source:      req.Locator,
		Destination: req.Destination,
	}
	if br.Err != nil {
		status, code := httputil.StatusFor(br.Err)
		item.Status = status
		item.Error = string(code)
		if status < http.StatusInternalServerError {
			item.ErrorDescription = describe(br.Err)
		}
		return item
	}
	item.Status = http.StatusCreated
	item.Rows = br.Result.Rows
	item.MaskedFields = br.Result.MaskedFields
	return item
}

func describe(err error) string {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return de.Description()
	}
	return err.Error()
}

// AuditEvent is the public view of an audit.Event.
type AuditEvent struct {
	ID              string    `json:"id"`
	Timestamp       time.Time `json:"timestamp"`
	RequestID       string    `json:"request_id,omitempty"`
	Subject         string    `json:"subject,omitempty"`
	Source          string    `json:"source"`
	Destination     string    `json:"destination,omitempty"`
	Format          string    `json:"format,omitempty"`
	RequestedFields []string  `json:"requested_fields"`
	MatchedFields   []string  `json:"matched_fields"`
	Rows            int       `json:"rows"`
	Outcome         string    `json:"outcome"`
	ErrorKind       string    `json:"error_kind,omitempty"`
}

type AuditResponse struct {
	Events []AuditEvent `json:"events"`
}

// toAuditEvent omits Reason, which can carry store error text.
func toAuditEvent(e audit.Event) AuditEvent {
	return AuditEvent{
		ID:              e.ID.String(),
		Timestamp:       e.Timestamp,
		RequestID:       e.RequestID,
		Subject:         e.Subject,
		Source:          e.Source,
		Destination:     e.Destination,
		Format:          e.Format,
		RequestedFields: orEmpty(e.RequestedFields),
		MatchedFields:   orEmpty(e.MatchedFields),
		Rows:            e.Rows,
		Outcome:         string(e.Outcome),
		ErrorKind:       e.ErrorKind,
	}
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
