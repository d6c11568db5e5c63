package monitor

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/angeloszaimis/uptime-monitor/internal/probe"
)

// ErrInvalidCheck marks a stored record that cannot be monitored.
var ErrInvalidCheck = errors.New("invalid check")

type State string

const (
	StateUp   State = "up"
	StateDown State = "down"
)

var (
	protocols = []any{"http", "https"}
	methods   = []any{"get", "post", "put", "delete"}
)

// Check is a validated check record.
type Check struct {
	ID             string `json:"id"`
	UserPhone      string `json:"userPhone"`
	Protocol       string `json:"protocol"`
	URL            string `json:"url"`
	Method         string `json:"method"`
	SuccessCodes   []int  `json:"successCodes"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
	State          State  `json:"state"`
	// LastChecked is milliseconds since the epoch; zero means never checked.
	LastChecked int64 `json:"lastChecked,omitempty"`
}

// Checked reports whether the check has been probed before.
func (c Check) Checked() bool {
	return c.LastChecked > 0
}

func (c Check) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c Check) Request() probe.Request {
	return probe.Request{
		Protocol: c.Protocol,
		URL:      c.URL,
		Method:   c.Method,
		Timeout:  c.Timeout(),
	}
}

// Accepts reports whether statusCode is one of the check's success codes.
func (c Check) Accepts(statusCode int) bool {
	for _, code := range c.SuccessCodes {
		if code == statusCode {
			return true
		}
	}
	return false
}

func (c Check) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ID, validation.Required, validation.Length(16, 16), is.Hexadecimal),
		validation.Field(&c.UserPhone, validation.Required, validation.Length(10, 10), is.Digit),
		validation.Field(&c.Protocol, validation.Required, validation.In(protocols...)),
		validation.Field(&c.URL, validation.Required),
		validation.Field(&c.Method, validation.Required, validation.In(methods...)),
		validation.Field(&c.SuccessCodes, validation.Required),
		validation.Field(&c.TimeoutSeconds, validation.Required, validation.Min(1), validation.Max(5)),
		validation.Field(&c.State, validation.In(StateUp, StateDown)),
	)
}

// ParseCheck turns a stored record into a Check. The record is not modified;
// string fields are trimmed on the Check only.
// Missing or unknown state becomes down; a missing or non-positive
// lastChecked means never checked. Any other malformed field is reported as
// ErrInvalidCheck together with the per-field reasons.
func ParseCheck(raw map[string]any) (Check, error) {
	typeErrs := validation.Errors{}

	c := Check{
		ID:             stringField(raw, "id", typeErrs),
		UserPhone:      stringField(raw, "userPhone", typeErrs),
		Protocol:       stringField(raw, "protocol", typeErrs),
		URL:            stringField(raw, "url", typeErrs),
		Method:         stringField(raw, "method", typeErrs),
		SuccessCodes:   intSliceField(raw, "successCodes", typeErrs),
		TimeoutSeconds: intField(raw, "timeoutSeconds", typeErrs),
		State:          parseState(raw["state"]),
		LastChecked:    parseLastChecked(raw["lastChecked"]),
	}

	err := c.Validate()
	if err != nil {
		var fieldErrs validation.Errors
		if !errors.As(err, &fieldErrs) {
			return Check{}, fmt.Errorf("validate check: %w", err)
		}
		for field, typeErr := range typeErrs {
			fieldErrs[field] = typeErr
		}
		return Check{}, fmt.Errorf("%w: %w", ErrInvalidCheck, fieldErrs)
	}
	if len(typeErrs) > 0 {
		return Check{}, fmt.Errorf("%w: %w", ErrInvalidCheck, typeErrs)
	}

	return c, nil
}

func stringField(raw map[string]any, key string, errs validation.Errors) string {
	v, ok := raw[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		errs[key] = errors.New("must be a string")
		return ""
	}
	return strings.TrimSpace(s)
}

func intField(raw map[string]any, key string, errs validation.Errors) int {
	v, ok := raw[key]
	if !ok || v == nil {
		return 0
	}
	n, ok := toInt(v)
	if !ok {
		errs[key] = errors.New("must be an integer")
		return 0
	}
	return n
}

func intSliceField(raw map[string]any, key string, errs validation.Errors) []int {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil
	}

	switch items := v.(type) {
	case []int:
		return append([]int(nil), items...)
	case []any:
		codes := make([]int, 0, len(items))
		for _, item := range items {
			n, ok := toInt(item)
			if !ok {
				errs[key] = errors.New("must contain integers only")
				return nil
			}
			codes = append(codes, n)
		}
		return codes
	default:
		errs[key] = errors.New("must be an array")
		return nil
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}

func parseState(v any) State {
	if s, ok := v.(string); ok && State(s) == StateUp {
		return StateUp
	}
	return StateDown
}

func parseLastChecked(v any) int64 {
	var ms int64
	switch n := v.(type) {
	case float64:
		ms = int64(n)
	case int64:
		ms = n
	case int:
		ms = int64(n)
	case json.Number:
		ms, _ = n.Int64()
	}
	if ms <= 0 {
		return 0
	}
	return ms
}
