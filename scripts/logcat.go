//go:build ignore

// Logcat prints the latest archived log of a check, decompressed.
//
// Usage:
//
//	go run scripts/logcat.go -dir .log -id a1b2c3d4e5f6a7b8
//	go run scripts/logcat.go -dir .log -list
//
// Exit codes:
//
//	0 - Archive printed
//	2 - Bad arguments
//	3 - No archive for the id
//	4 - Archive unreadable
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/angeloszaimis/uptime-monitor/internal/storage"
)

func main() {
	dir := flag.String("dir", ".log", "Log directory")
	id := flag.String("id", "", "Check id whose latest archive to print")
	list := flag.Bool("list", false, "List ids with active or archived logs")
	flag.Parse()

	logs := storage.NewLogStore(*dir)

	if *list {
		ids, err := logs.List(true)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to list logs: %v\n", err)
			os.Exit(4)
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return
	}

	if *id == "" {
		fmt.Fprintln(os.Stderr, "-id is required")
		flag.Usage()
		os.Exit(2)
	}

	content, err := logs.Decompress(*id)
	switch storage.CodeOf(err) {
	case "":
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read archive: %v\n", err)
			os.Exit(4)
		}
	case storage.CodeNotFound:
		fmt.Fprintf(os.Stderr, "no archive for %s in %s\n", *id, *dir)
		os.Exit(3)
	default:
		fmt.Fprintf(os.Stderr, "failed to read archive: %v\n", err)
		os.Exit(4)
	}

	fmt.Print(content)
}
