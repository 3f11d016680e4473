//go:build production

package controller

const DefaultOverlayVisible = false
