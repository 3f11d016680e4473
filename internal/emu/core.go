package emu

import (
	"context"

	"github.com/lavender-emu/lavender/internal/memory"
)

// Core is the external emulator reached through its exported entry points.
// Region addresses are only valid after InitEmulation has succeeded.
type Core interface {
	InitEmulation(ctx context.Context, rom []byte) error
	StepFrames(ctx context.Context, n int) error
	RegionAddress(ctx context.Context, r memory.Region) (uint32, error)
	Memory() memory.Linear
}
