// Package web holds the single-page client shell served for every path the
// API does not claim.
package web

import "embed"

//go:embed index.html
var Assets embed.FS
