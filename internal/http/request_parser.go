package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"kalkyle/internal/core"
)

// ValueKey is the body key every control posts its value under. htmx sends
// it form-encoded; scripts may send a JSON object instead.
const ValueKey = "value"

const maxValueBody = 4 << 10

// controlBody is a decoded control request body.
type controlBody struct {
	json map[string]json.RawMessage
	form url.Values
}

// readControlBody reads at most maxValueBody bytes of r's body. A body is
// treated as JSON when the Content-Type says so or it opens with '{'.
func readControlBody(r *http.Request) (controlBody, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxValueBody))
	if err != nil {
		return controlBody{}, fmt.Errorf("read body: %w", err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return controlBody{form: url.Values{}}, nil
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" || raw[0] == '{' {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return controlBody{}, fmt.Errorf("decode json body: %w", err)
		}
		return controlBody{json: fields}, nil
	}

	form, err := url.ParseQuery(string(raw))
	if err != nil {
		return controlBody{}, fmt.Errorf("decode form body: %w", err)
	}
	return controlBody{form: form}, nil
}

// get returns the cleaned text under key. JSON numbers keep their literal
// digits so 3.50 stays 3.50.
func (b controlBody) get(key string) string {
	if b.json != nil {
		raw, ok := b.json[key]
		if !ok {
			return ""
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return sanitizeInput(s)
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil {
			return n.String()
		}
		return ""
	}
	return sanitizeInput(b.form.Get(key))
}

// isJSON reports whether the body was a JSON object.
func (b controlBody) isJSON() bool {
	return b.json != nil
}

// ParseValue reads the posted control value.
func ParseValue(r *http.Request) (string, error) {
	body, err := readControlBody(r)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(body.get(ValueKey)), nil
}

// ParseAmountValue reads the posted control value as a non-negative amount.
func ParseAmountValue(r *http.Request) (decimal.Decimal, error) {
	text, err := ParseValue(r)
	if err != nil {
		return decimal.Zero, err
	}
	return core.ParseAmount(text)
}
