package requests

import (
	"encoding/json"
	"slices"
)

// Status is the lifecycle stage of a request.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusProcessing Status = "processing"
	StatusReview     Status = "review"
	StatusComplete   Status = "complete"
)

var statuses = []Status{
	StatusDraft,
	StatusProcessing,
	StatusReview,
	StatusComplete,
}

// Statuses returns the valid request statuses in lifecycle order.
func Statuses() []Status {
	return statuses
}

// UnmarshalJSON validates that the decoded string is a known status.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseStatus validates a string as a known status.
func ParseStatus(s string) (Status, error) {
	v := Status(s)
	if !slices.Contains(statuses, v) {
		return "", ErrInvalidStatus
	}
	return v, nil
}
