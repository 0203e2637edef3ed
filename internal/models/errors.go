package models

import (
	"fmt"
	"strings"
	"unicode"
)

// InvalidTouchPointError se devuelve cuando falta un campo obligatorio.
type InvalidTouchPointError struct {
	Field  string
	Reason string
}

func (e *InvalidTouchPointError) Error() string {
	return fmt.Sprintf("invalid touchpoint: %s %s", e.Field, e.Reason)
}

func (tp TouchPoint) Validate() error {
	switch {
	case tp.ID == "":
		return &InvalidTouchPointError{Field: "id", Reason: "is required"}
	case tp.Timestamp.IsZero():
		return &InvalidTouchPointError{Field: "timestamp", Reason: "is required"}
	case tp.Channel == "":
		return &InvalidTouchPointError{Field: "channel", Reason: "is required"}
	case tp.Domain == "":
		return &InvalidTouchPointError{Field: "domain", Reason: "is required"}
	case tp.SessionID == "":
		return &InvalidTouchPointError{Field: "session_id", Reason: "is required"}
	case tp.PagePath == "":
		return &InvalidTouchPointError{Field: "page_path", Reason: "is required"}
	case hasControl(tp.Channel):
		return &InvalidTouchPointError{Field: "channel", Reason: "must not contain control characters"}
	case hasControl(tp.Domain):
		return &InvalidTouchPointError{Field: "domain", Reason: "must not contain control characters"}
	case hasControl(tp.SessionID):
		return &InvalidTouchPointError{Field: "session_id", Reason: "must not contain control characters"}
	case !tp.EventType.Valid():
		return &InvalidTouchPointError{Field: "event_type", Reason: fmt.Sprintf("unknown value %q", tp.EventType)}
	case tp.Value != nil && *tp.Value < 0:
		return &InvalidTouchPointError{Field: "value", Reason: "must not be negative"}
	}
	return nil
}

func hasControl(s string) bool { return strings.ContainsFunc(s, unicode.IsControl) }
