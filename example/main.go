package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jpalmerr/sitepatch"
	"github.com/jpalmerr/sitepatch/starter"
)

func main() {
	// copy the starter site into a scratch directory so the demo never
	// touches files in the repo
	root, err := os.MkdirTemp("", "sitepatch-demo-")
	if err != nil {
		slog.Error("failed to create demo directory", "error", err)
		os.Exit(1)
	}
	defer os.RemoveAll(root)

	if err := writeStarter(root); err != nil {
		slog.Error("failed to write starter site", "error", err)
		os.Exit(1)
	}

	sp, err := sitepatch.New(
		sitepatch.WithRoot(root),
		sitepatch.WithPort(8080),
		sitepatch.WithSaveCallback(func(r sitepatch.SaveResult) {
			slog.Info("document saved",
				"request_id", r.RequestID,
				"projects", r.Count,
				"bytes", r.Bytes,
			)
		}),
	)
	if err != nil {
		slog.Error("failed to create sitepatch server", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   sitepatch Demo                                      ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Open http://localhost:8080 in your browser          ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   A mock editor saves a new project list every 15s    ║")
	fmt.Println("  ║   and the page reloads itself after each save.        ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// mock editor (see mock_editor.go)
	go RunMockEditor(ctx, "http://localhost:8080", 15*time.Second)

	if err := sp.Start(ctx); err != nil {
		slog.Error("sitepatch error", "error", err)
		os.Exit(1)
	}
}

// writeStarter copies the embedded starter site into dir.
func writeStarter(dir string) error {
	entries, err := fs.ReadDir(starter.Assets, starter.Dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		data, err := fs.ReadFile(starter.Assets, path.Join(starter.Dir, e.Name()))
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, e.Name()), data, 0o644); err != nil {
			return err
		}
	}
	return nil
}
