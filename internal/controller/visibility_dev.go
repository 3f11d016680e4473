//go:build !production

package controller

// DefaultOverlayVisible shows diagnostics by default in development builds.
const DefaultOverlayVisible = true
