package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"time"
)

// mockProjects is the pool the mock editor draws project lists from.
var mockProjects = []map[string]any{
	{"title": "Weather station", "description": "Sensors on the roof, graphs in the hall.", "url": "https://example.com/weather"},
	{"title": "Bread timer", "description": "Tells you when the dough has doubled.", "url": "https://example.com/bread"},
	{"title": "Trail map", "description": "Hand-drawn routes for the local hills.", "url": "https://example.com/trails"},
	{"title": "Tiny synth", "description": "Four voices, one knob.", "url": "https://example.com/synth"},
}

var mockTitles = []string{"My Portfolio", "Things I Made", "Workshop"}

// RunMockEditor posts a random project list to baseURL every interval,
// the way the visual editor would when its Save button is pressed.
// It returns when ctx is cancelled.
func RunMockEditor(ctx context.Context, baseURL string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := postSave(ctx, baseURL, randomSave()); err != nil {
				slog.Warn("mock editor save failed", "error", err)
			}
		}
	}
}

// randomSave builds a save request body with 1 to len(mockProjects) projects.
func randomSave() map[string]any {
	perm := rand.Perm(len(mockProjects))
	n := 1 + rand.Intn(len(mockProjects))

	projects := make([]map[string]any, 0, n)
	for _, i := range perm[:n] {
		projects = append(projects, mockProjects[i])
	}

	return map[string]any{
		"projects": projects,
		"settings": map[string]string{
			"title": mockTitles[rand.Intn(len(mockTitles))],
		},
	}
}

func postSave(ctx context.Context, baseURL string, body map[string]any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/save-projects", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var result struct {
		OK    bool   `json:"ok"`
		Count int    `json:"count"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("save rejected (%d): %s", resp.StatusCode, result.Error)
	}

	slog.Info("mock editor saved", "count", result.Count)
	return nil
}
