package emu

// Config contains settings that affect how the core is driven.
type Config struct {
	Trace bool // log core entry points and their durations
}
