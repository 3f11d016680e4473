//go:build statsview

package statsview

import (
	"fmt"
	"io"
	"log"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

// Path is where the graphs are served; pprof handlers sit under /debug/pprof/.
const Path = "/debug/statsview"

// Launch starts the stats server on addr in the background and reports
// whether it was started.
func Launch(addr string, output io.Writer) bool {
	viewer.SetConfiguration(viewer.WithAddr(addr))
	mgr := statsview.New()
	go func() {
		if err := mgr.Start(); err != nil {
			log.Printf("statsview: %v", err)
		}
	}()
	fmt.Fprintf(output, "runtime stats at http://%s%s\n", addr, Path)
	return true
}
