package app

import "github.com/pthm-cable/deconstruct/engine"

// flushTelemetry traces every TraceEvery-th frame and reports perf once per
// collector window.
func (a *App) flushTelemetry(f *engine.Frame) {
	if a.output != nil {
		if every := int64(a.cfg.Telemetry.TraceEvery); every > 0 && f.Tick%every == 0 {
			if err := a.output.WriteFrame(f.Record(f.Degenerate)); err != nil {
				a.logger.Error("failed to write frame", "error", err)
			}
		}
	}

	window := int64(a.cfg.Telemetry.PerfCollectorWindow)
	if window <= 0 || f.Tick == 0 || f.Tick%window != 0 {
		return
	}
	stats := a.perf.Stats()
	a.logger.Info("perf", "tick", f.Tick, "stats", stats)
	if a.output != nil {
		if err := a.output.WritePerf(stats, f.Tick); err != nil {
			a.logger.Error("failed to write perf", "error", err)
		}
	}
}
