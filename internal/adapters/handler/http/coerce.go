package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// flexInt accepts a JSON number or a numeric string, as sent by HTML forms.
// An empty string counts as absent; an explicit null is recorded separately so
// callers can tell "clear" from "not sent".
type flexInt struct {
	present bool
	null    bool
	n       int
}

func (f *flexInt) UnmarshalJSON(data []byte) error {
	f.present = true
	data = bytes.TrimSpace(data)

	if string(data) == "null" {
		f.null = true
		return nil
	}

	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			f.present = false
			return nil
		}
		raw = s
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("expected an integer, got %s", string(data))
	}
	f.n = n
	return nil
}

// ptr returns nil unless a value was actually sent.
func (f flexInt) ptr() *int {
	if !f.present || f.null {
		return nil
	}
	n := f.n
	return &n
}

func (f flexInt) cleared() bool {
	return f.present && f.null
}

// optionalString separates an omitted key from an explicit null or "".
type optionalString struct {
	present bool
	value   *string
}

func (o *optionalString) UnmarshalJSON(data []byte) error {
	o.present = true
	if string(bytes.TrimSpace(data)) == "null" {
		o.value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.value = &s
	return nil
}

// blank reports an explicit null or empty string.
func (o optionalString) blank() bool {
	return o.present && (o.value == nil || strings.TrimSpace(*o.value) == "")
}

// get returns the trimmed value, or nil when absent or blank.
func (o optionalString) get() *string {
	if !o.present || o.blank() {
		return nil
	}
	s := strings.TrimSpace(*o.value)
	return &s
}

// queryInt reads an integer query parameter, falling back to def when missing.
func queryInt(raw string, def int) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("expected an integer, got %q", raw)
	}
	return n, nil
}
