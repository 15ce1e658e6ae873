// Package sitepatch provides a local development server for static sites
// whose main HTML document embeds its own content as a JavaScript array.
//
// sitepatch serves the site's files and exposes one write endpoint. A visual
// editor posts the full list of records to it, and sitepatch rewrites the
// array literal inside the document in place, leaving every other byte of
// the file untouched. A save may also replace the page's background image
// reference and its <title>.
//
// # Quick Start
//
// Serve the current directory and accept saves with graceful shutdown:
//
//	srv, _ := sitepatch.New()
//
//	// Set up graceful shutdown on SIGINT/SIGTERM
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	srv.Start(ctx) // blocks until context is cancelled
//
// # The Document
//
// The document must contain an assignment of the form
//
//	const PROJECTS = [ ... ];
//
// Each save replaces that assignment with the posted records rendered as
// indented JSON. The marker can be changed with [WithMarker].
//
// # Configuration
//
// sitepatch uses the functional options pattern for configuration:
//
//	srv, err := sitepatch.New(
//	    sitepatch.WithRoot("./site"),
//	    sitepatch.WithDocument("index.html"),
//	    sitepatch.WithPort(9090),
//	    sitepatch.WithMarker("const", "PROJECTS"),
//	)
//
// # HTTP Surface
//
//   - POST /save-projects: body {"projects": [...], "settings": {"bg": "...", "title": "..."}}
//   - GET /api/projects: the records currently in the document
//   - GET /api/events: Server-Sent Events stream of saves
//   - GET /ws: websocket stream of saves
//   - GET /healthz: liveness
//   - anything else: static files under the root
//
// # Architecture
//
// sitepatch consists of several internal packages (under internal/):
//
//   - internal/patcher: locating and rewriting the literal (pure text in, text out)
//   - internal/static: request path to file resolution, confined to the root
//   - internal/store: atomic document writes and save event pub/sub
//   - internal/server: HTTP dispatcher, save endpoint and event streams
//
// The internal packages are not part of the public API and may change
// without notice.
package sitepatch
