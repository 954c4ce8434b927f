package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/deconstruct/config"
)

// FrameRecord is one frames.csv row: the per-tick parameter snapshot.
type FrameRecord struct {
	Tick           int64   `csv:"tick"`
	Time           float64 `csv:"time"`
	Progress       float32 `csv:"progress"`
	ModeBlend      float32 `csv:"mode_blend"`
	PointSize      float32 `csv:"point_size"`
	PixelRatio     float32 `csv:"pixel_ratio"`
	ResolutionW    float32 `csv:"resolution_w"`
	ResolutionH    float32 `csv:"resolution_h"`
	LinearStrength float32 `csv:"linear_strength"`
	NoiseStrength  float32 `csv:"noise_strength"`
	MouseX         float32 `csv:"mouse_x"`
	MouseY         float32 `csv:"mouse_y"`
	MouseInfluence float32 `csv:"mouse_influence"`
	ColorIntensity float32 `csv:"color_intensity"`
	Residual       float32 `csv:"residual"`
	Degenerate     int     `csv:"degenerate"`
}

// csvFile is an output file whose header is written with the first row.
type csvFile struct {
	f             *os.File
	headerWritten bool
}

func createCSV(dir, name string) (*csvFile, error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &csvFile{f: f}, nil
}

// write appends records; rows must be a slice of csv-tagged structs.
func (c *csvFile) write(rows any) error {
	if !c.headerWritten {
		if err := gocsv.Marshal(rows, c.f); err != nil {
			return err
		}
		c.headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(rows, c.f)
}

// OutputManager writes run traces into an output directory:
// frames.csv, perf.csv and the effective config.yaml.
type OutputManager struct {
	dir    string
	frames *csvFile
	perf   *csvFile
}

// NewOutputManager creates the output directory and its CSV files.
// Returns nil if dir is empty (output disabled); every method is nil-safe.
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	frames, err := createCSV(dir, "frames.csv")
	if err != nil {
		return nil, err
	}
	perf, err := createCSV(dir, "perf.csv")
	if err != nil {
		frames.f.Close()
		return nil, err
	}
	return &OutputManager{dir: dir, frames: frames, perf: perf}, nil
}

// WriteConfig saves the effective configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteFrame appends one snapshot row to frames.csv.
func (om *OutputManager) WriteFrame(rec FrameRecord) error {
	if om == nil {
		return nil
	}
	if err := om.frames.write([]FrameRecord{rec}); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// WritePerf appends one perf window row to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, tick int64) error {
	if om == nil {
		return nil
	}
	if err := om.perf.write([]PerfStatsCSV{stats.ToCSV(tick)}); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close closes all output files and returns the first error.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	var firstErr error
	for _, c := range []*csvFile{om.frames, om.perf} {
		if c == nil {
			continue
		}
		if err := c.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
