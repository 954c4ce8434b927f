// Terminal viewer - renders the particle field with tcell.
//
// Usage: go run ./cmd/termview [-config file] [-image file] [-serve addr]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/pthm-cable/deconstruct/app"
	"github.com/pthm-cable/deconstruct/config"
	"github.com/pthm-cable/deconstruct/engine"
)

const scrollStep = 0.05

type viewer struct {
	screen tcell.Screen
	app    *app.App
	eng    *engine.Engine
	raster *Raster
	driver *engine.ManualDriver

	scroll float64
	last   *engine.Frame
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	imagePath := flag.String("image", "", "Image to sample particle colors from")
	serve := flag.String("serve", "", "Also serve snapshots over websocket on this address")
	logPath := flag.String("log", "termview.log", "Log file (the terminal is busy)")
	flag.Parse()

	logFile, err := os.Create(*logPath)
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()
	logger := slog.New(slog.NewJSONHandler(logFile, nil))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	// The raster needs particle positions
	cfg.Scheduler.Materialize = true

	a, err := app.New(cfg, app.Options{ImagePath: *imagePath, Serve: *serve}, logger)
	if err != nil {
		log.Fatalf("failed to start: %v", err)
	}
	defer a.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatalf("failed to create screen: %v", err)
	}
	if err := screen.Init(); err != nil {
		log.Fatalf("failed to init screen: %v", err)
	}
	defer screen.Fini()
	screen.EnableMouse()

	cols, rows := screen.Size()
	v := &viewer{
		screen: screen,
		app:    a,
		eng:    a.Engine(),
		raster: NewRaster(cols, rows, float32(cfg.Render.ViewportHeight), float32(cfg.Render.CameraDistance)),
		driver: engine.NewManualDriver(),
	}
	v.resize()

	a.AddSink(v.raster)
	a.AddSink(engine.SinkFunc(func(f *engine.Frame) { v.last = f }))
	if err := a.Attach(v.driver); err != nil {
		log.Fatalf("failed to attach: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := a.Serve(ctx); err != nil {
			logger.Error("snapshot server failed", "error", err)
		}
	}()

	v.run(cfg.Derived.TickInterval)
}

func (v *viewer) run(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	for {
		select {
		case ev := <-eventChan:
			if !v.handleInput(ev) {
				return
			}
		case <-ticker.C:
			v.driver.Fire()
			v.draw()
		}
	}
}

func (v *viewer) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyUp:
			v.setScroll(v.scroll - scrollStep)
		case tcell.KeyDown:
			v.setScroll(v.scroll + scrollStep)
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return false
			case '1':
				v.eng.TriggerExplosion(engine.ModeLinear)
			case '2':
				v.eng.TriggerExplosion(engine.ModeRandom)
			case 'l':
				v.eng.AnimateMode(engine.ModeLinear, 0)
			case 'r':
				v.eng.AnimateMode(engine.ModeRandom, 0)
			}
		}

	case *tcell.EventMouse:
		col, row := ev.Position()
		x, y := v.raster.NDC(col, row)
		v.eng.SetPointer(float64(x), float64(y))

	case *tcell.EventResize:
		v.screen.Sync()
		v.resize()
	}
	return true
}

func (v *viewer) setScroll(s float64) {
	v.scroll = max(0, min(1, s))
	v.eng.BindScroll(v.scroll)
}

func (v *viewer) resize() {
	cols, rows := v.screen.Size()
	v.raster.Resize(cols, rows)
	v.eng.SetViewport(float64(cols), float64(rows*2), 1)
}

func (v *viewer) draw() {
	v.screen.Clear()
	r := v.raster
	full := r.Full()
	for row := 0; row < r.Rows; row++ {
		for col := 0; col < r.Cols; col++ {
			c := r.Cells[row*r.Cols+col]
			g := c.Glyph(full)
			if g == ' ' {
				continue
			}
			cr, cg, cb := c.Color.Clamped().RGB255()
			style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(cr), int32(cg), int32(cb)))
			v.screen.SetContent(col, row, g, nil, style)
		}
	}

	if f := v.last; f != nil {
		status := fmt.Sprintf(" tick %d  progress %.2f  mode %.2f  [1/2] explode [l/r] mode [up/down] scroll [q] quit ",
			f.Tick, f.Progress, f.ModeBlend)
		for i, ch := range status {
			if i >= r.Cols {
				break
			}
			v.screen.SetContent(i, r.Rows-1, ch, nil, tcell.StyleDefault.Reverse(true))
		}
	}
	v.screen.Show()
}
