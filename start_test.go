package sitepatch

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"
)

// waitForServer polls the health endpoint until the server answers.
func waitForServer(t *testing.T, port int) {
	t.Helper()
	url := fmt.Sprintf("http://127.0.0.1:%d/healthz", port)
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("server on port %d did not come up", port)
}

// TestStart_BlocksUntilContextCancelled verifies that Start blocks until the
// provided context is cancelled.
func TestStart_BlocksUntilContextCancelled(t *testing.T) {
	// use a high port to avoid conflicts
	srv, err := New(WithRoot(newSite(t, testDocument)), WithPort(19001))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- srv.Start(ctx)
	}()

	waitForServer(t, 19001)

	// verify Start is still blocking
	select {
	case err := <-done:
		t.Fatalf("Start() returned early with error: %v", err)
	default:
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after context cancellation")
	}

	// the port should be free again once Start has returned
	ln, err := net.Listen("tcp", ":19001")
	if err != nil {
		t.Errorf("port still in use after Start() returned: %v", err)
	} else {
		ln.Close()
	}
}

// TestStart_ReturnsImmediatelyIfContextAlreadyCancelled verifies that Start
// returns immediately if the context is already cancelled.
func TestStart_ReturnsImmediatelyIfContextAlreadyCancelled(t *testing.T) {
	srv, err := New(WithRoot(newSite(t, testDocument)), WithPort(19002))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Start(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() returned error: %v", err)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("Start() did not return immediately for cancelled context")
	}
}

// TestStart_PortInUse verifies that Start reports a bind failure.
func TestStart_PortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", ":19003")
	if err != nil {
		t.Skipf("port 19003 unavailable: %v", err)
	}
	defer ln.Close()

	srv, err := New(WithRoot(newSite(t, testDocument)), WithPort(19003))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := srv.Start(ctx); err == nil {
		t.Error("Start() expected error for port in use, got nil")
	}
}

// TestStart_ServesSiteAndSaves runs a save through the real listener.
func TestStart_ServesSiteAndSaves(t *testing.T) {
	srv, err := New(WithRoot(newSite(t, testDocument)), WithPort(19004))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Start(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	waitForServer(t, 19004)

	resp, err := http.Get("http://127.0.0.1:19004/")
	if err != nil {
		t.Fatalf("GET / error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET / status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	resp, err = http.Post("http://127.0.0.1:19004/save-projects", "application/json",
		strings.NewReader(`{"projects":[{"name":"a"},{"name":"b"}]}`))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	projects, err := srv.Projects()
	if err != nil {
		t.Fatalf("Projects() error = %v", err)
	}
	if len(projects) != 2 {
		t.Errorf("Projects() = %d records, want 2", len(projects))
	}
}
