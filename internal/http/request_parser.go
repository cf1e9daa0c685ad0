package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"expensebook/internal/core"
)

// maxFormBody bounds JSON and form bodies; workbook uploads have their own
// limit.
const maxFormBody = 64 << 10

var errBadRequest = errors.New("malformed request")

// RequestBodyParser reads a JSON or form-encoded body once and serves its
// fields as trimmed strings.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]interface{}
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser reads at most maxFormBody bytes of r's body.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxFormBody))
	return p
}

// Parse decodes the body as JSON when it looks like an object, as a form
// otherwise.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		p.err = fmt.Errorf("%w: %v", errBadRequest, p.err)
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}
	if trimmed[0] == '{' {
		p.jsonData = make(map[string]interface{})
		if err := json.Unmarshal([]byte(trimmed), &p.jsonData); err != nil {
			p.err = fmt.Errorf("%w: %v", errBadRequest, err)
		}
		return p.err
	}

	p.formData, p.err = url.ParseQuery(trimmed)
	if p.err != nil {
		p.err = fmt.Errorf("%w: %v", errBadRequest, p.err)
	}
	return p.err
}

// Get returns a field with control characters removed.
func (p *RequestBodyParser) Get(key string) string {
	return sanitizeInput(p.raw(key))
}

// GetText returns a field keeping line breaks, for free text.
func (p *RequestBodyParser) GetText(key string) string {
	return sanitizeText(p.raw(key))
}

// Has reports whether the body carried key at all.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	if p.formData != nil {
		_, ok := p.formData[key]
		return ok
	}
	return false
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func (p *RequestBodyParser) raw(key string) string {
	if p.jsonData != nil {
		return stringValue(p.jsonData[key])
	}
	if p.formData != nil {
		return p.formData.Get(key)
	}
	return ""
}

func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// parseExpense builds an expense from the body. The day defaults to today's
// and the amount accepts a decimal comma.
func parseExpense(p *RequestBodyParser, now time.Time) (core.Expense, error) {
	if err := p.Parse(); err != nil {
		return core.Expense{}, err
	}

	day := now.Day()
	if v := p.Get("date"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			return core.Expense{}, fmt.Errorf("date %q: %w", v, core.ErrInvalidDay)
		}
		day = d
	}

	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		return core.Expense{}, err
	}

	return core.Expense{
		Name:      p.Get("name"),
		Date:      day,
		Amount:    amount,
		Primary:   p.Get("primary"),
		Secondary: p.Get("secondary"),
	}, nil
}

// monthParam resolves the {month} path segment.
func monthParam(r *http.Request) (core.Month, error) {
	return core.ParseMonth(r.PathValue("month"))
}

// indexParam resolves the {index} path segment.
func indexParam(r *http.Request) (int, error) {
	i, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		return 0, fmt.Errorf("%w: index %q", errBadRequest, r.PathValue("index"))
	}
	return i, nil
}
