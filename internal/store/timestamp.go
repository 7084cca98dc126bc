package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// timestampLayout is fixed width so that the lexical order of encoded values matches chronological order
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// Timestamp is a time stored inside a document. It is always encoded in UTC
// with nanosecond precision so that ordering by the raw field is chronological.
type Timestamp time.Time

// NewTimestamp converts t to a Timestamp
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t)
}

// Time returns the value as time.Time in UTC
func (t Timestamp) Time() time.Time {
	return time.Time(t).UTC()
}

// String returns the encoded form
func (t Timestamp) String() string {
	return time.Time(t).UTC().Format(timestampLayout)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts the encoded string form, any RFC 3339 string,
// or a number of milliseconds since the epoch. Null leaves the zero time.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = Timestamp{}
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*t = Timestamp{}
			return nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("invalid timestamp %q: %w", s, err)
		}
		*t = Timestamp(parsed.UTC())
		return nil
	}

	var millis int64
	if err := json.Unmarshal(b, &millis); err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", string(b), err)
	}
	*t = Timestamp(time.UnixMilli(millis).UTC())
	return nil
}
