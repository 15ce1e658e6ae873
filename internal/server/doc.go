// Package server provides the HTTP server for sitepatch.
//
// This package is internal to sitepatch and handles all HTTP concerns:
//
//   - Save endpoint: POST "/save-projects" rewrites the document's literal
//   - Static files: everything else is served from the site root
//   - Read-back: JSON endpoint at "/api/projects" with the current records
//   - Notifications: save events over Server-Sent Events at "/api/events"
//     and over a websocket at "/ws"
//   - Health: "/healthz"
//
// Every response carries cross-origin headers so an editor loaded from
// another origin can call the save endpoint. The server supports graceful
// shutdown via context cancellation.
//
// Users of the sitepatch library should not need to interact with this
// package directly. The server is started automatically by [sitepatch.Server.Start].
package server
