package analysis

import (
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonrepair"
)

// ParseError reports a structured payload that was missing or could not be
// decoded into MIMetrics even after repair. Parse failures are surfaced to
// the caller and never cached.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing analysis result: %s", e.Reason)
}

// Parse decodes the monitor assistant's structured reply into MIMetrics.
// Model output occasionally arrives with minor JSON defects (trailing commas,
// unquoted keys); those are repaired before the strict unmarshal.
func Parse(raw string) (*MIMetrics, error) {
	if raw == "" {
		return nil, &ParseError{Reason: "empty analysis payload"}
	}

	var metrics MIMetrics
	if err := json.Unmarshal([]byte(raw), &metrics); err == nil {
		return &metrics, nil
	}

	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return nil, &ParseError{Reason: fmt.Sprintf("irreparable JSON: %v", err)}
	}
	if err := json.Unmarshal([]byte(repaired), &metrics); err != nil {
		return nil, &ParseError{Reason: fmt.Sprintf("repaired payload does not match schema: %v", err)}
	}
	return &metrics, nil
}
