package probe_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/uptime-monitor/internal/probe"
)

var _ = Describe("HTTPProber", func() {
	var (
		server     *httptest.Server
		lastMethod string
		prober     *probe.HTTPProber
	)

	BeforeEach(func() {
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lastMethod = r.Method
			switch r.URL.Path {
			case "/health":
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("OK"))
			case "/moved":
				http.Redirect(w, r, "/health", http.StatusMovedPermanently)
			case "/slow":
				time.Sleep(300 * time.Millisecond)
				w.WriteHeader(http.StatusOK)
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		prober = probe.NewHTTPProber()
	})

	AfterEach(func() {
		server.Close()
	})

	request := func(path, method string, timeout time.Duration) probe.Request {
		return probe.Request{
			Protocol: "http",
			URL:      strings.TrimPrefix(server.URL, "http://") + path,
			Method:   method,
			Timeout:  timeout,
		}
	}

	It("should return the status code", func() {
		res, err := prober.Probe(context.Background(), request("/health", "get", time.Second))
		Expect(err).NotTo(HaveOccurred())
		Expect(res.StatusCode).To(Equal(http.StatusOK))
		Expect(lastMethod).To(Equal(http.MethodGet))
	})

	It("should uppercase the method", func() {
		_, err := prober.Probe(context.Background(), request("/health", "delete", time.Second))
		Expect(err).NotTo(HaveOccurred())
		Expect(lastMethod).To(Equal(http.MethodDelete))
	})

	It("should report non-2xx codes without error", func() {
		res, err := prober.Probe(context.Background(), request("/missing", "post", time.Second))
		Expect(err).NotTo(HaveOccurred())
		Expect(res.StatusCode).To(Equal(http.StatusNotFound))
	})

	It("should not follow redirects", func() {
		res, err := prober.Probe(context.Background(), request("/moved", "get", time.Second))
		Expect(err).NotTo(HaveOccurred())
		Expect(res.StatusCode).To(Equal(http.StatusMovedPermanently))
	})

	It("should use the supplied client", func() {
		custom := probe.NewHTTPProberWithClient(server.Client())

		res, err := custom.Probe(context.Background(), request("/moved", "get", time.Second))
		Expect(err).NotTo(HaveOccurred())
		Expect(res.StatusCode).To(Equal(http.StatusOK))
		Expect(lastMethod).To(Equal(http.MethodGet))
	})

	It("should honour the timeout", func() {
		start := time.Now()
		_, err := prober.Probe(context.Background(), request("/slow", "get", 50*time.Millisecond))
		Expect(err).To(HaveOccurred())
		Expect(probe.IsTimeout(err)).To(BeTrue())
		Expect(time.Since(start)).To(BeNumerically("<", 250*time.Millisecond))
	})

	It("should fail for an unreachable host", func() {
		_, err := prober.Probe(context.Background(), probe.Request{
			Protocol: "http",
			URL:      "127.0.0.1:1/health",
			Method:   "get",
			Timeout:  time.Second,
		})
		Expect(err).To(HaveOccurred())
	})

	It("should reject a zero timeout", func() {
		_, err := prober.Probe(context.Background(), request("/health", "get", 0))
		Expect(err).To(MatchError(ContainSubstring("timeout must be positive")))
	})

	It("should build the target from protocol and url", func() {
		req := probe.Request{Protocol: "https", URL: "example.com/status"}
		Expect(req.Target()).To(Equal("https://example.com/status"))
	})
})
