package monitor

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ProbeError is the error indicator written with an outcome whose probe did
// not complete. Timeouts and transport errors share this shape.
type ProbeError struct {
	Error bool   `json:"error"`
	Value string `json:"value"`
}

// Outcome is the result of probing and classifying one check. Check holds
// the record as it was before this cycle.
type Outcome struct {
	Check          Check       `json:"check"`
	StatusCode     int         `json:"statusCode,omitempty"`
	Error          *ProbeError `json:"error,omitempty"`
	State          State       `json:"state"`
	AlertWarranted bool        `json:"alertWarranted"`
	// CheckTime is milliseconds since the epoch.
	CheckTime int64 `json:"checkTime"`
}

// Classify derives the new state from a probe result. A probe error means
// down. An alert is warranted only for a check probed before whose state
// changed.
func Classify(check Check, statusCode int, probeErr error, checkTime int64) Outcome {
	previous := check.State

	outcome := Outcome{
		Check:     check,
		State:     StateDown,
		CheckTime: checkTime,
	}

	if probeErr != nil {
		outcome.Error = &ProbeError{Error: true, Value: probeErr.Error()}
	} else {
		outcome.StatusCode = statusCode
		if check.Accepts(statusCode) {
			outcome.State = StateUp
		}
	}

	outcome.AlertWarranted = check.Checked() && outcome.State != previous
	return outcome
}

// LogLine renders the outcome as a single log line.
func (o Outcome) LogLine() (string, error) {
	data, err := json.Marshal(o)
	if err != nil {
		return "", fmt.Errorf("encode outcome for %s: %w", o.Check.ID, err)
	}
	return string(data), nil
}

// AlertMessage is the text sent to the owner on a state change.
func (o Outcome) AlertMessage() string {
	return fmt.Sprintf("Alert: your check for %s %s://%s is currently %s",
		strings.ToUpper(o.Check.Method), o.Check.Protocol, o.Check.URL, o.State)
}

// apply returns a copy of raw with the new state and check time, leaving
// every other stored field untouched.
func (o Outcome) apply(raw map[string]any) map[string]any {
	updated := make(map[string]any, len(raw)+2)
	for k, v := range raw {
		updated[k] = v
	}
	updated["state"] = string(o.State)
	updated["lastChecked"] = o.CheckTime
	return updated
}
