package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Object stores and audit sinks
// return these, optionally wrapped, and transport code maps them to status
// codes without knowing which backend produced them.
//
// For invalid caller input use pkg/domain-errors instead.
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
	ErrForbidden   = errors.New("forbidden")
)
