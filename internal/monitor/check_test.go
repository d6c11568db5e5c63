package monitor_test

import (
	"encoding/json"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/uptime-monitor/internal/monitor"
)

func validRecord() map[string]any {
	return map[string]any{
		"id":             "a1b2c3d4e5f6a7b8",
		"userPhone":      "5551234567",
		"protocol":       "http",
		"url":            "example.com",
		"method":         "get",
		"successCodes":   []any{float64(200), float64(201)},
		"timeoutSeconds": float64(3),
	}
}

var _ = Describe("ParseCheck", func() {
	It("should parse a well-formed record", func() {
		raw := validRecord()
		raw["state"] = "up"
		raw["lastChecked"] = float64(1700000000000)

		check, err := monitor.ParseCheck(raw)
		Expect(err).NotTo(HaveOccurred())
		Expect(check).To(Equal(monitor.Check{
			ID:             "a1b2c3d4e5f6a7b8",
			UserPhone:      "5551234567",
			Protocol:       "http",
			URL:            "example.com",
			Method:         "get",
			SuccessCodes:   []int{200, 201},
			TimeoutSeconds: 3,
			State:          monitor.StateUp,
			LastChecked:    1700000000000,
		}))
		Expect(check.Checked()).To(BeTrue())
		Expect(check.Timeout()).To(Equal(3 * time.Second))
	})

	It("should default a missing state to down and a missing lastChecked to never", func() {
		check, err := monitor.ParseCheck(validRecord())
		Expect(err).NotTo(HaveOccurred())
		Expect(check.State).To(Equal(monitor.StateDown))
		Expect(check.Checked()).To(BeFalse())
	})

	It("should treat an unknown state and a non-positive lastChecked as defaults", func() {
		raw := validRecord()
		raw["state"] = "sideways"
		raw["lastChecked"] = float64(-5)

		check, err := monitor.ParseCheck(raw)
		Expect(err).NotTo(HaveOccurred())
		Expect(check.State).To(Equal(monitor.StateDown))
		Expect(check.LastChecked).To(BeZero())
	})

	It("should accept records decoded with json.Number", func() {
		raw := validRecord()
		raw["timeoutSeconds"] = json.Number("5")
		raw["successCodes"] = []any{json.Number("204")}

		check, err := monitor.ParseCheck(raw)
		Expect(err).NotTo(HaveOccurred())
		Expect(check.TimeoutSeconds).To(Equal(5))
		Expect(check.SuccessCodes).To(Equal([]int{204}))
	})

	It("should trim surrounding whitespace from string fields", func() {
		raw := validRecord()
		raw["id"] = " a1b2c3d4e5f6a7b8 "
		raw["url"] = " example.com "
		raw["method"] = "get\n"

		check, err := monitor.ParseCheck(raw)
		Expect(err).NotTo(HaveOccurred())
		Expect(check.ID).To(Equal("a1b2c3d4e5f6a7b8"))
		Expect(check.URL).To(Equal("example.com"))
		Expect(check.Method).To(Equal("get"))
		Expect(check.Request().URL).To(Equal("example.com"))
		Expect(raw["url"]).To(Equal(" example.com "))
	})

	It("should reject a url that is only whitespace", func() {
		raw := validRecord()
		raw["url"] = "   "

		_, err := monitor.ParseCheck(raw)
		Expect(err).To(MatchError(monitor.ErrInvalidCheck))
	})

	It("should not modify the record", func() {
		raw := validRecord()
		_, err := monitor.ParseCheck(raw)
		Expect(err).NotTo(HaveOccurred())
		Expect(raw).To(Equal(validRecord()))
	})

	DescribeTable("rejecting malformed records",
		func(field string, value any) {
			raw := validRecord()
			if value == nil {
				delete(raw, field)
			} else {
				raw[field] = value
			}

			_, err := monitor.ParseCheck(raw)
			Expect(errors.Is(err, monitor.ErrInvalidCheck)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring(field))
		},
		Entry("missing id", "id", nil),
		Entry("short id", "id", "a1b2c3"),
		Entry("non-hex id", "id", "zzzzzzzzzzzzzzzz"),
		Entry("missing userPhone", "userPhone", nil),
		Entry("short userPhone", "userPhone", "555123"),
		Entry("non-digit userPhone", "userPhone", "555123456x"),
		Entry("unsupported protocol", "protocol", "ftp"),
		Entry("missing url", "url", nil),
		Entry("empty url", "url", ""),
		Entry("non-string url", "url", float64(42)),
		Entry("unsupported method", "method", "patch"),
		Entry("uppercase method", "method", "GET"),
		Entry("empty successCodes", "successCodes", []any{}),
		Entry("non-array successCodes", "successCodes", "200"),
		Entry("non-integer successCodes", "successCodes", []any{"200"}),
		Entry("missing timeoutSeconds", "timeoutSeconds", nil),
		Entry("zero timeoutSeconds", "timeoutSeconds", float64(0)),
		Entry("timeoutSeconds above five", "timeoutSeconds", float64(6)),
		Entry("fractional timeoutSeconds", "timeoutSeconds", float64(2.5)),
	)
})

var _ = Describe("Classify", func() {
	var check monitor.Check

	BeforeEach(func() {
		var err error
		check, err = monitor.ParseCheck(validRecord())
		Expect(err).NotTo(HaveOccurred())
	})

	It("should be up only for a listed status code", func() {
		Expect(monitor.Classify(check, 201, nil, 1).State).To(Equal(monitor.StateUp))
		Expect(monitor.Classify(check, 500, nil, 1).State).To(Equal(monitor.StateDown))
	})

	It("should be down with an error indicator when the probe failed", func() {
		outcome := monitor.Classify(check, 0, errors.New("dial tcp: timeout"), 1)
		Expect(outcome.State).To(Equal(monitor.StateDown))
		Expect(outcome.StatusCode).To(BeZero())
		Expect(outcome.Error).To(Equal(&monitor.ProbeError{Error: true, Value: "dial tcp: timeout"}))
	})

	DescribeTable("alert decisions",
		func(previous monitor.State, lastChecked int64, statusCode int, want bool) {
			check.State = previous
			check.LastChecked = lastChecked
			Expect(monitor.Classify(check, statusCode, nil, 2).AlertWarranted).To(Equal(want))
		},
		Entry("first probe up", monitor.StateDown, int64(0), 200, false),
		Entry("first probe down", monitor.StateDown, int64(0), 500, false),
		Entry("down to up", monitor.StateDown, int64(1), 200, true),
		Entry("up to down", monitor.StateUp, int64(1), 500, true),
		Entry("still up", monitor.StateUp, int64(1), 200, false),
		Entry("still down", monitor.StateDown, int64(1), 500, false),
	)

	It("should keep the pre-classification check in the outcome", func() {
		check.LastChecked = 1
		outcome := monitor.Classify(check, 200, nil, 99)
		Expect(outcome.Check.State).To(Equal(monitor.StateDown))
		Expect(outcome.State).To(Equal(monitor.StateUp))
		Expect(outcome.CheckTime).To(Equal(int64(99)))
	})

	It("should render the alert message", func() {
		outcome := monitor.Classify(check, 200, nil, 1)
		Expect(outcome.AlertMessage()).To(Equal("Alert: your check for GET http://example.com is currently up"))
	})

	It("should encode the error indicator in the log line", func() {
		line, err := monitor.Classify(check, 0, errors.New("boom"), 7).LogLine()
		Expect(err).NotTo(HaveOccurred())

		var decoded map[string]any
		Expect(json.Unmarshal([]byte(line), &decoded)).To(Succeed())
		Expect(decoded["error"]).To(Equal(map[string]any{"error": true, "value": "boom"}))
		Expect(decoded).NotTo(HaveKey("statusCode"))
		Expect(decoded["state"]).To(Equal("down"))
		Expect(decoded["alertWarranted"]).To(BeFalse())
		Expect(decoded["checkTime"]).To(Equal(float64(7)))
		Expect(decoded["check"]).To(HaveKeyWithValue("id", "a1b2c3d4e5f6a7b8"))
	})
})
