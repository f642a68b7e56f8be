// Package common holds wire types shared by every SolarSite API resource.
package common

import (
	"encoding/json"
	"fmt"
	"time"
)

// ErrorDetail is the error body of every non-2xx HTTP response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func (e ErrorDetail) String() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Timestamp renders as "2006-01-02T15:04:05.000000Z", the format of the
// analysis health endpoint. It also accepts RFC 3339 input.
type Timestamp time.Time

const MicroTimestampLayout = "2006-01-02T15:04:05.000000Z"

func NewTimestamp() Timestamp {
	return Timestamp(time.Now().UTC())
}

func (t Timestamp) Time() time.Time { return time.Time(t) }

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).UTC().Format(MicroTimestampLayout))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(MicroTimestampLayout, s)
	if err != nil {
		if parsed, err = time.Parse(time.RFC3339Nano, s); err != nil {
			return err
		}
	}
	*t = Timestamp(parsed.UTC())
	return nil
}

//Personal.AI order the ending
