package app

// Options holds run settings taken from the command line.
type Options struct {
	Seed      int64  // Grid seed override (0 = config)
	ImagePath string // Texture to sample particle colors from
	OutputDir string // CSV traces and config snapshot (empty = off)
	Serve     string // Snapshot server address (empty = off)
	TickRate  int    // Ticks per second override (0 = config)
	MaxTicks  int64  // Stop after N ticks (0 = unlimited)
}
