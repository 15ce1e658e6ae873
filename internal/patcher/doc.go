// Package patcher rewrites the data literal embedded in a site's HTML document.
//
// The document is treated as opaque text. The patcher finds one well-known
// marker region, a named array literal such as
//
//	const PROJECTS = [ ... ];
//
// and replaces it with freshly rendered records. Every byte outside the
// region is preserved exactly. Two optional auxiliary substitutions can be
// applied in the same pass: the URL of the first CSS background image
// reference and the inner text of the first <title> element.
//
// The main entry points are:
//
//   - [Patch]: replace the literal with new records (pure, text in, text out)
//   - [Extract]: decode the records currently stored in the literal
//   - [Render]: render records the way [Patch] writes them
//
// Nothing in this package touches the filesystem; persistence is the
// caller's job.
package patcher
