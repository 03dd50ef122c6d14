// Package mmkblog provides embedded assets for production builds.
package mmkblog

import "embed"

// In dev mode (IsDev=true), assets are loaded from disk instead.

//go:embed all:frontend/static
var StaticFS embed.FS

//go:embed all:frontend/templates
var TemplateFS embed.FS
