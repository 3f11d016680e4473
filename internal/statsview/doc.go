// Package statsview serves Go runtime graphs (heap, goroutines, GC pauses)
// while the emulator runs, so frame-time regressions can be matched against
// allocation behaviour. The server is compiled in only with the statsview
// build tag; default builds get a Launch that reports it is missing.
package statsview
