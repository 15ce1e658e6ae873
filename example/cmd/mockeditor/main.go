// Standalone mock editor for testing the CLI.
//
// Usage:
//
//	go run ./cmd/sitepatch init ./site
//	go run ./cmd/sitepatch serve -c ./site/sitepatch.yaml
//
// Then in another terminal:
//
//	go run ./example/cmd/mockeditor -url http://localhost:8080
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"
)

func main() {
	url := flag.String("url", "http://localhost:8080", "sitepatch server base URL")
	count := flag.Int("count", 3, "number of projects to save")
	title := flag.String("title", "", "document title to save (empty leaves it alone)")
	flag.Parse()

	projects := make([]map[string]any, *count)
	for i := range projects {
		projects[i] = map[string]any{
			"title":       fmt.Sprintf("Project %d", i+1),
			"description": fmt.Sprintf("Saved by the mock editor at %s", time.Now().Format(time.Kitchen)),
		}
	}

	body := map[string]any{"projects": projects}
	if *title != "" {
		body["settings"] = map[string]string{"title": *title}
	}

	data, err := json.Marshal(body)
	if err != nil {
		slog.Error("failed to encode save", "error", err)
		os.Exit(1)
	}

	resp, err := http.Post(*url+"/save-projects", "application/json", bytes.NewReader(data))
	if err != nil {
		slog.Error("save failed", "error", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	out, _ := io.ReadAll(resp.Body)
	fmt.Printf("%d %s\n", resp.StatusCode, out)
	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}
