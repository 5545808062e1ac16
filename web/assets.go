// Package web embeds the portal's static assets.
package web

import "embed"

//go:embed static
var Assets embed.FS

// StaticDir is the directory inside Assets served under /static/.
const StaticDir = "static"
