//go:build ignore

// Seedcheck writes a check record straight into the record store, for local
// runs without the management API.
//
// Usage:
//
//	go run scripts/seedcheck.go -dir .data -url localhost:8081/health -phone 5551234567
//
// The generated id is printed on success.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/angeloszaimis/uptime-monitor/internal/monitor"
	"github.com/angeloszaimis/uptime-monitor/internal/storage"
)

func newID() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func main() {
	dir := flag.String("dir", ".data", "Record store directory")
	protocol := flag.String("protocol", "http", "http or https")
	url := flag.String("url", "localhost:8081/health", "Host and path without scheme")
	method := flag.String("method", "get", "get, post, put or delete")
	codes := flag.String("codes", "200", "Comma-separated success codes")
	timeout := flag.Int("timeout", 3, "Timeout in seconds (1-5)")
	phone := flag.String("phone", "5551234567", "Owner phone, 10 digits")
	flag.Parse()

	id, err := newID()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate id: %v\n", err)
		os.Exit(2)
	}

	var successCodes []any
	for _, c := range strings.Split(*codes, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(c))
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid success code %q\n", c)
			os.Exit(2)
		}
		successCodes = append(successCodes, float64(n))
	}

	record := map[string]any{
		"id":             id,
		"userPhone":      *phone,
		"protocol":       *protocol,
		"url":            *url,
		"method":         *method,
		"successCodes":   successCodes,
		"timeoutSeconds": float64(*timeout),
	}
	if _, err := monitor.ParseCheck(record); err != nil {
		fmt.Fprintf(os.Stderr, "check rejected: %v\n", err)
		os.Exit(2)
	}

	checks := storage.NewStore(*dir, "").Collection("checks")
	if err := checks.Create(id, record); err != nil {
		fmt.Fprintf(os.Stderr, "failed to store check: %v\n", err)
		os.Exit(3)
	}

	fmt.Println(id)
}
