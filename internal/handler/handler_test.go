package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/uptime-monitor/internal/handler"
	"github.com/angeloszaimis/uptime-monitor/internal/storage"
	"github.com/angeloszaimis/uptime-monitor/pkg/logger"
)

type fakeWorker struct {
	name    string
	runs    int
	lastErr error
	lastRun time.Time
}

func (f fakeWorker) Name() string { return f.name }
func (f fakeWorker) Stats() (int, error, time.Time) {
	return f.runs, f.lastErr, f.lastRun
}

type brokenLogs struct{}

func (brokenLogs) List(bool) ([]string, error) {
	return nil, &storage.Error{Code: storage.CodeIO, Op: "list", Err: errors.New("permission denied")}
}
func (brokenLogs) Decompress(string) (string, error) { return "", errors.New("boom") }

var _ = Describe("StatusHandler", func() {
	var (
		checks *storage.Collection
		logs   *storage.LogStore
		h      *handler.StatusHandler
		router chi.Router
	)

	serve := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	mount := func(h *handler.StatusHandler) {
		router = chi.NewRouter()
		router.Get("/healthz", h.Health)
		router.Get("/checks/{id}", h.GetCheck)
		router.Get("/logs", h.ListLogs)
		router.Get("/logs/{id}/archive", h.GetArchive)
	}

	BeforeEach(func() {
		dir := GinkgoT().TempDir()
		checks = storage.NewStore(filepath.Join(dir, "data"), "secret").Collection("checks")
		logs = storage.NewLogStore(filepath.Join(dir, "logs"))

		h = handler.NewStatusHandler(logger.Discard(), checks, logs,
			fakeWorker{name: "checks", runs: 3, lastRun: time.Unix(1700000000, 0).UTC()},
			fakeWorker{name: "rotation", runs: 1, lastErr: errors.New("list logs: denied")},
		)
		mount(h)
	})

	Describe("Health", func() {
		It("should report every worker", func() {
			rec := serve("/healthz")
			Expect(rec.Code).To(Equal(http.StatusOK))

			var body struct {
				Status  string `json:"status"`
				Workers map[string]struct {
					Runs      int    `json:"runs"`
					LastError string `json:"last_error"`
				} `json:"workers"`
			}
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body.Status).To(Equal("ok"))
			Expect(body.Workers["checks"].Runs).To(Equal(3))
			Expect(body.Workers["rotation"].LastError).To(Equal("list logs: denied"))
		})
	})

	Describe("GetCheck", func() {
		It("should return the stored record", func() {
			Expect(checks.Create("a1b2c3d4e5f6a7b8", map[string]any{"id": "a1b2c3d4e5f6a7b8", "state": "up"})).To(Succeed())

			rec := serve("/checks/a1b2c3d4e5f6a7b8")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring(`"state":"up"`))
		})

		It("should return 404 for an unknown check", func() {
			rec := serve("/checks/ffffffffffffffff")
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})

		DescribeTable("should return 400 for an id that cannot name a check",
			func(path string) {
				rec := serve(path)
				Expect(rec.Code).To(Equal(http.StatusBadRequest))
				Expect(rec.Body.String()).To(MatchJSON(`{"error":"invalid id"}`))
			},
			Entry("parent directory", "/checks/.."),
			Entry("dotted", "/checks/a1b2.json"),
			Entry("escaped separator", "/checks/..%2Fdata"),
		)
	})

	Describe("ListLogs", func() {
		BeforeEach(func() {
			Expect(logs.Append("a", "1")).To(Succeed())
			Expect(logs.Append("b", "2")).To(Succeed())
			_, err := logs.Rotate("b")
			Expect(err).NotTo(HaveOccurred())
		})

		It("should list active logs by default", func() {
			rec := serve("/logs")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(MatchJSON(`{"ids":["a"]}`))
		})

		It("should include archived logs on request", func() {
			rec := serve("/logs?archived=true")
			Expect(rec.Body.String()).To(MatchJSON(`{"ids":["a","b"]}`))
		})

		It("should return 500 when the store fails", func() {
			mount(handler.NewStatusHandler(logger.Discard(), checks, brokenLogs{}))
			Expect(serve("/logs").Code).To(Equal(http.StatusInternalServerError))
		})
	})

	Describe("GetArchive", func() {
		It("should return the decompressed archive", func() {
			Expect(logs.Append("a", `{"state":"down"}`)).To(Succeed())
			_, err := logs.Rotate("a")
			Expect(err).NotTo(HaveOccurred())

			rec := serve("/logs/a/archive")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get("Content-Type")).To(HavePrefix("text/plain"))
			Expect(rec.Body.String()).To(Equal(`{"state":"down"}` + "\n"))
		})

		It("should return 404 when there is no archive", func() {
			Expect(serve("/logs/nothing/archive").Code).To(Equal(http.StatusNotFound))
		})

		It("should return 400 for an id that cannot name a log", func() {
			Expect(serve("/logs/a.b/archive").Code).To(Equal(http.StatusBadRequest))
			Expect(serve("/logs/..%2Fa/archive").Code).To(Equal(http.StatusBadRequest))
		})
	})
})

var _ = Describe("RequestLogger", func() {
	It("should log the request with its status", func() {
		var buf bytes.Buffer
		log := logger.NewWithWriter(&buf, "info", false, "development")

		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil).WithContext(context.Background())
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

		rec := httptest.NewRecorder()
		handler.RequestLogger(log)(next).ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusTeapot))
		Expect(buf.String()).To(ContainSubstring("status=418"))
		Expect(buf.String()).To(ContainSubstring("from=203.0.113.7"))
		Expect(buf.String()).To(ContainSubstring("path=/healthz"))
	})
})
