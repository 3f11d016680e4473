//go:build !statsview

package statsview

import "io"

// Launch does nothing in builds without the statsview tag.
func Launch(addr string, output io.Writer) bool { return false }
