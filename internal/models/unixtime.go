package models

import (
	"bytes"
	"fmt"
	"strconv"
	"time"
)

// UnixTime is a timestamp carried on the wire as integer seconds since the
// epoch. JSON null decodes to the zero value.
type UnixTime struct {
	time.Time
}

// NewUnixTime returns t truncated to whole seconds in UTC
func NewUnixTime(t time.Time) UnixTime {
	return UnixTime{Time: t.Truncate(time.Second).UTC()}
}

// FromUnix converts epoch seconds into a UnixTime
func FromUnix(sec int64) UnixTime {
	return UnixTime{Time: time.Unix(sec, 0).UTC()}
}

// ParseUnixTime parses a JSON value holding epoch seconds. Only integer
// numbers are accepted; strings, fractions, objects and other shapes fail.
func ParseUnixTime(data []byte) (UnixTime, error) {
	raw := bytes.TrimSpace(data)
	if len(raw) == 0 {
		return UnixTime{}, fmt.Errorf("parse unix time: empty value")
	}
	if bytes.Equal(raw, []byte("null")) {
		return UnixTime{}, nil
	}

	sec, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return UnixTime{}, fmt.Errorf("parse unix time %s: want integer epoch seconds", truncate(raw, 32))
	}
	return FromUnix(sec), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (u *UnixTime) UnmarshalJSON(data []byte) error {
	parsed, err := ParseUnixTime(data)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// MarshalJSON implements json.Marshaler
func (u UnixTime) MarshalJSON() ([]byte, error) {
	if u.IsZero() {
		return []byte("null"), nil
	}
	return strconv.AppendInt(nil, u.Unix(), 10), nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
