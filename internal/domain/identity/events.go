package identity

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType enumerates the lifecycle events recorded in an identity's
// audit trail.
type EventType string

const (
	EventCreateAccount   EventType = "CREATE_ACCOUNT"
	EventUpdateAccount   EventType = "UPDATE_ACCOUNT"
	EventEnrollBiometric EventType = "ENROLL_BIOMETRIC"
	EventDeleteBiometric EventType = "DELETE_BIOMETRIC"
)

// AccountEventsKey is the metadata key holding the JSON-encoded audit trail.
const AccountEventsKey = "account_events"

// AccountEvent is a single audit-trail entry. Date is a calendar day in
// YYYY-MM-DD form; upstream metadata values must stay primitive, so the
// event list is stored as a JSON string rather than a nested array.
type AccountEvent struct {
	Event EventType `json:"event"`
	Date  string    `json:"date"`
}

// AppendEvent returns a copy of metadata with a new audit event appended to
// the account_events trail, normalized to the canonical JSON-string
// encoding. The existing trail may be a JSON string (current form) or a raw
// array (legacy form); anything else, including a string that fails to
// decode, starts a fresh trail. A non-nil error reports a recoverable decode
// problem the caller should log; the returned metadata is valid either way.
func AppendEvent(metadata Metadata, event EventType, at time.Time) (Metadata, error) {
	updated := make(Metadata, len(metadata)+1)
	for k, v := range metadata {
		updated[k] = v
	}

	events, decodeErr := decodeEvents(metadata[AccountEventsKey])
	events = append(events, AccountEvent{
		Event: event,
		Date:  at.Format("2006-01-02"),
	})

	encoded, err := json.Marshal(events)
	if err != nil {
		// Events are plain strings; this cannot happen in practice.
		return updated, fmt.Errorf("encoding account events: %w", err)
	}
	updated[AccountEventsKey] = string(encoded)

	return updated, decodeErr
}

// DecodeEvents extracts the audit trail from metadata, tolerating both
// encodings. Used for display; an undecodable trail reads as empty.
func DecodeEvents(metadata Metadata) []AccountEvent {
	events, _ := decodeEvents(metadata[AccountEventsKey])
	return events
}

func decodeEvents(raw any) ([]AccountEvent, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		var events []AccountEvent
		if err := json.Unmarshal([]byte(v), &events); err != nil {
			return nil, fmt.Errorf("decoding account_events string: %w", err)
		}
		return events, nil
	case []AccountEvent:
		return append([]AccountEvent(nil), v...), nil
	case []any:
		// Legacy encoding: the trail was stored as a raw JSON array.
		// Round-trip through JSON to coerce the loosely typed elements.
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("re-encoding legacy account_events: %w", err)
		}
		var events []AccountEvent
		if err := json.Unmarshal(data, &events); err != nil {
			return nil, fmt.Errorf("decoding legacy account_events: %w", err)
		}
		return events, nil
	default:
		return nil, fmt.Errorf("unexpected account_events type %T", raw)
	}
}
