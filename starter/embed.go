// Package starter provides the embedded starter site written by
// "sitepatch init".
//
// The starter document already contains everything a save touches: a
// const PROJECTS literal, a background image reference and a <title>. It
// also reloads itself when the server reports a save, so edits made through
// the editor show up without a manual refresh.
package starter

import "embed"

// Assets is an embedded filesystem containing the starter site.
//
// The filesystem structure is:
//
//	assets/
//	  index.html      - Site document with the PROJECTS literal
//	  sitepatch.yaml  - Config file serving the directory it sits in
//
//go:embed assets/*
var Assets embed.FS

// Dir is the directory inside [Assets] that holds the starter files.
const Dir = "assets"
