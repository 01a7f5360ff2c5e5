// Command tune searches solver parameters with Nelder-Mead, scoring each
// candidate on a fixed pressure or dam break scenario.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/flip/config"
)

// EvalRecord is one row of the evaluation log.
type EvalRecord struct {
	Eval           int     `csv:"eval"`
	Fitness        float64 `csv:"fitness"`
	OverRelaxation float64 `csv:"over_relaxation"`
	DriftStiffness float64 `csv:"drift_stiffness"`
	ElapsedSec     float64 `csv:"elapsed_sec"`
}

// evalLog appends EvalRecords to a CSV file, writing the header once.
type evalLog struct {
	f             *os.File
	headerWritten bool
}

func (l *evalLog) write(r EvalRecord) error {
	records := []EvalRecord{r}
	if l.headerWritten {
		return gocsv.MarshalWithoutHeaders(records, l.f)
	}
	if err := gocsv.Marshal(records, l.f); err != nil {
		return err
	}
	l.headerWritten = true
	return nil
}

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	scenario := flag.String("scenario", scenarioPressure, "Scenario to score: pressure or dambreak")
	seeds := flag.Int("seeds", 3, "Number of seeds per evaluation")
	maxEvals := flag.Int("max-evals", 60, "Maximum number of evaluations")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if *outputDir == "" {
		slog.Error("--output is required")
		os.Exit(1)
	}
	if err := run(*configPath, *scenario, *seeds, *maxEvals, *outputDir); err != nil {
		slog.Error("tuning failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, scenario string, numSeeds, maxEvals int, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	base, err := config.Load(configPath)
	if err != nil {
		return err
	}

	params := NewParamVector(scenario)
	evalSeeds := make([]int64, numSeeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}
	evaluator, err := NewFitnessEvaluator(params, scenario, evalSeeds, base)
	if err != nil {
		return err
	}

	logFile, err := os.Create(filepath.Join(outputDir, "tune_log.csv"))
	if err != nil {
		return fmt.Errorf("create log file: %w", err)
	}
	defer logFile.Close()
	log := &evalLog{f: logFile}

	evalCount := 0
	bestFitness := 1e9
	var bestParams []float64
	start := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			raw := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(raw)
			evalCount++
			if fitness < bestFitness {
				bestFitness = fitness
				bestParams = raw
			}

			p := base.Params()
			params.Apply(&p, raw)
			rec := EvalRecord{
				Eval:           evalCount,
				Fitness:        fitness,
				OverRelaxation: float64(p.OverRelaxation),
				DriftStiffness: float64(p.DriftStiffness),
				ElapsedSec:     time.Since(start).Seconds(),
			}
			if err := log.write(rec); err != nil {
				slog.Error("failed to write eval log", "error", err)
			}
			slog.Info("eval",
				"eval", evalCount,
				"fitness", fitness,
				"over_relaxation", rec.OverRelaxation,
				"drift_stiffness", rec.DriftStiffness,
				"best", bestFitness,
			)
			return fitness
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: maxEvals,
	}
	method := &optimize.NelderMead{
		SimplexSize: 0.2,
	}

	slog.Info("starting tuning",
		"scenario", scenario,
		"params", params.Dim(),
		"seeds", numSeeds,
		"max_evals", maxEvals,
	)
	result, err := optimize.Minimize(problem, params.Normalize(params.DefaultVector()), settings, method)
	if err != nil {
		slog.Info("optimization ended", "reason", err)
	}
	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}
	if bestParams == nil {
		return fmt.Errorf("no evaluations completed")
	}

	for i, spec := range params.Specs {
		slog.Info("best parameter", "name", spec.Name, "value", bestParams[i])
	}

	p := base.Params()
	params.Apply(&p, bestParams)
	base.SetParams(p)
	configOut := filepath.Join(outputDir, "best_config.yaml")
	if err := base.WriteYAML(configOut); err != nil {
		return err
	}
	slog.Info("tuning complete",
		"evals", evalCount,
		"best_fitness", bestFitness,
		"elapsed", time.Since(start).Round(time.Second).String(),
		"config", configOut,
	)
	return nil
}
