//go:build ignore

// Target is a probe target for trying the monitor locally. It answers /health
// with a status code that can be flipped at runtime to force state changes.
//
// Usage:
//
//	go run scripts/target.go -port 8081
//	curl -X POST 'localhost:8081/status?code=503'   # next probes see down
//	curl -X POST 'localhost:8081/status?code=200'   # and up again
//	curl -X POST 'localhost:8081/delay?ms=6000'     # exceed any check timeout
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

func main() {
	port := flag.Int("port", 8081, "port to listen on")
	flag.Parse()

	var code atomic.Int32
	var delayMs atomic.Int64
	code.Store(http.StatusOK)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if d := delayMs.Load(); d > 0 {
			time.Sleep(time.Duration(d) * time.Millisecond)
		}
		log.Printf("probe: method=%s from=%s answering=%d", r.Method, r.RemoteAddr, code.Load())
		w.WriteHeader(int(code.Load()))
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next, err := strconv.Atoi(r.URL.Query().Get("code"))
		if err != nil || next < 100 || next > 599 {
			http.Error(w, "code must be a status code", http.StatusBadRequest)
			return
		}
		code.Store(int32(next))
		log.Printf("health now answers %d", next)
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("/delay", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		ms, err := strconv.ParseInt(r.URL.Query().Get("ms"), 10, 64)
		if err != nil || ms < 0 {
			http.Error(w, "ms must be a non-negative integer", http.StatusBadRequest)
			return
		}
		delayMs.Store(ms)
		w.WriteHeader(http.StatusNoContent)
	})

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("starting target on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
