package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/deconstruct/config"
)

// EvalRecord is one row of the evaluation log.
type EvalRecord struct {
	Eval       int     `csv:"eval"`
	Fitness    float64 `csv:"fitness"`
	Stiffness  float64 `csv:"stiffness"`
	Damping    float64 `csv:"damping"`
	SettleTime float64 `csv:"settle_time"`
	Overshoot  float64 `csv:"overshoot"`
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	springName := flag.String("spring", "progress", "Spring to fit: progress, mode or intensity")
	target := flag.Float64("settle", 0.5, "Target settle time in seconds")
	maxEvals := flag.Int("max-evals", 400, "Maximum number of evaluations")
	outputDir := flag.String("output", "", "Output directory for the eval log and best config (empty = print only)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	spring, err := springConfig(cfg, *springName)
	if err != nil {
		log.Fatal(err)
	}

	params := NewParamVector(*spring)
	evaluator := NewFitnessEvaluator(params, *spring, cfg.Smoothing.MaxSubstep, *target)

	var records []EvalRecord
	var best EvalRecord
	best.Fitness = -1

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			raw := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(raw)
			r := evaluator.Last()

			rec := EvalRecord{
				Eval:       len(records) + 1,
				Fitness:    fitness,
				Stiffness:  raw[0],
				Damping:    raw[1],
				SettleTime: r.SettleTime,
				Overshoot:  r.Overshoot,
			}
			records = append(records, rec)
			if best.Fitness < 0 || fitness < best.Fitness {
				best = rec
			}
			return fitness
		},
	}

	settings := &optimize.Settings{FuncEvaluations: *maxEvals}
	initX := params.Normalize(params.DefaultVector())

	fmt.Printf("Fitting %s spring (mass %.2f) to settle in %.2fs\n", *springName, spring.Mass, *target)
	if _, err := optimize.Minimize(problem, initX, settings, &optimize.NelderMead{}); err != nil {
		log.Printf("optimization ended: %v", err)
	}

	fmt.Printf("\nBest after %d evaluations: settle=%.3fs overshoot=%.4f\n", len(records), best.SettleTime, best.Overshoot)
	fmt.Printf("smoothing:\n  %s:\n    stiffness: %.2f\n    damping: %.2f\n    mass: %.2f\n",
		*springName, best.Stiffness, best.Damping, spring.Mass)

	if *outputDir == "" {
		return
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	logFile, err := os.Create(filepath.Join(*outputDir, "springfit_log.csv"))
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()
	if err := gocsv.MarshalFile(&records, logFile); err != nil {
		log.Printf("failed to write eval log: %v", err)
	}

	spring.Stiffness = best.Stiffness
	spring.Damping = best.Damping
	configOutPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := cfg.WriteYAML(configOutPath); err != nil {
		log.Printf("failed to write best config: %v", err)
	} else {
		fmt.Printf("\nBest config saved to: %s\n", configOutPath)
	}
}
