package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"solarsoil/internal/store"
	"solarsoil/pkg/logger"
	sm "solarsoil/pkg/soiling"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

const usage = `usage: solarsoil <command> [flags]

commands:
  calibrate --clean DIR --dirty DIR   build calibration artifacts
  score IMAGE                         score a whole image
  tiles IMAGE                         score tiles and render a heatmap
  pairs --clean DIR --dirty DIR       write a training pair manifest
  history                             list recent inspections

run "solarsoil <command> -h" for command flags`

func run(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New(usage)
	}
	switch args[0] {
	case "calibrate":
		return runCalibrate(ctx, args[1:])
	case "score":
		return runScore(ctx, args[1:])
	case "tiles":
		return runTiles(ctx, args[1:])
	case "pairs":
		return runPairs(args[1:])
	case "history":
		return runHistory(args[1:])
	case "-h", "--help", "help":
		fmt.Println(usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}

// loadConfig reads --config when given, otherwise the defaults.
func loadConfig(path string) (sm.Config, error) {
	if path == "" {
		return sm.DefaultConfig(), nil
	}
	return sm.LoadConfig(path)
}

// loadModelConfig is loadConfig with a --model override.
func loadModelConfig(path, model string) (sm.Config, error) {
	cfg, err := loadConfig(path)
	if err != nil {
		return cfg, err
	}
	if model != "" {
		cfg.ModelPath = model
	}
	return cfg, nil
}

func runCalibrate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("calibrate", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML config file")
	modelPath := fs.String("model", "", "ONNX encoder model (default: built-in histogram encoder)")
	cleanDir := fs.String("clean", "", "directory of clean reference images")
	dirtyDir := fs.String("dirty", "", "directory of dirty reference images (sub-folders included)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *cleanDir == "" || *dirtyDir == "" {
		return errors.New("calibrate needs --clean and --dirty")
	}

	cfg, err := loadModelConfig(*configPath, *modelPath)
	if err != nil {
		return err
	}
	log := logger.NewSlogLogger(cfg.LogLevel)

	cleanPaths, err := sm.ListImages(*cleanDir)
	if err != nil {
		return err
	}
	dirtyPaths, err := sm.ListImages(*dirtyDir)
	if err != nil {
		return err
	}
	fmt.Printf("Num clean: %d\n", len(cleanPaths))
	fmt.Printf("Num dirty: %d\n", len(dirtyPaths))

	enc, err := sm.NewEncoder(cfg)
	if err != nil {
		return err
	}
	defer closeEncoder(enc)

	start := time.Now()
	profile, err := sm.CalibrateImages(ctx, enc, sm.FileInputs(cleanPaths), sm.FileInputs(dirtyPaths), cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("calibrating: %w", err)
	}
	if err := profile.Validate(); err != nil {
		log.Warnf("calibration looks inconsistent: %v", err)
	}
	if profile.Degenerate() {
		log.Warnf("dirty-sample distances collapsed; scores will use the fallback scale")
	}

	for _, p := range []string{cfg.ReferenceArtifactPath, cfg.CalibrationArtifactPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return fmt.Errorf("creating artifact directory: %w", err)
		}
	}
	if err := sm.SaveProfile(profile, cfg.ProfilePaths()); err != nil {
		return err
	}
	log.Infof("calibration took %s", time.Since(start).Round(time.Millisecond))

	fmt.Println()
	fmt.Println("=== Calibration ===")
	fmt.Printf("  Dimension:   %d\n", len(profile.Reference))
	fmt.Printf("  min_dist:    %.6f\n", profile.MinDist)
	fmt.Printf("  max_dist:    %.6f  (p%.0f)\n", profile.MaxDist, sm.CalibrationPercentile)
	fmt.Printf("  mean_dist:   %.6f\n", profile.MeanDist)
	fmt.Printf("  Reference:   %s\n", cfg.ReferenceArtifactPath)
	fmt.Printf("  Parameters:  %s\n", cfg.CalibrationArtifactPath)
	fmt.Println("===================")
	return nil
}

func runScore(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("score", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML config file")
	modelPath := fs.String("model", "", "ONNX encoder model (default: built-in histogram encoder)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("usage: solarsoil score [flags] IMAGE...")
	}

	cfg, err := loadModelConfig(*configPath, *modelPath)
	if err != nil {
		return err
	}
	log := logger.NewSlogLogger(cfg.LogLevel)
	insp, err := sm.OpenInspector(cfg, log)
	if err != nil {
		return err
	}
	defer insp.Close()

	history, err := openHistory(cfg)
	if err != nil {
		return err
	}
	if history != nil {
		defer history.Close()
	}

	for _, path := range fs.Args() {
		score, err := insp.ScoreImage(ctx, path)
		if err != nil {
			return err
		}
		category := sm.Classify(score)
		fmt.Printf("%s\n", path)
		fmt.Printf("  Dirt score:  %.2f\n", score)
		fmt.Printf("  Category:    %s\n", category)
		fmt.Printf("  Coverage:    %.1f%%\n", sm.Coverage(score))

		if history != nil {
			if _, err := history.Record(store.Inspection{Path: path, Score: score, Category: category.String()}); err != nil {
				log.Errorf(err, "recording inspection")
			}
		}
	}
	return nil
}

func runTiles(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tiles", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML config file")
	modelPath := fs.String("model", "", "ONNX encoder model (default: built-in histogram encoder)")
	tileSize := fs.Int("tile", 0, "tile size in pixels (default from config)")
	stride := fs.Int("stride", -1, "stride in pixels, 0 for no overlap (default from config)")
	heatmapOut := fs.String("heatmap", "", "write the heatmap overlay to this file")
	legend := fs.Bool("legend", false, "add a score legend and zone grid under the overlay")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: solarsoil tiles [flags] IMAGE")
	}
	path := fs.Arg(0)

	cfg, err := loadModelConfig(*configPath, *modelPath)
	if err != nil {
		return err
	}
	if *tileSize > 0 {
		cfg.TileSize = *tileSize
	}
	if *stride >= 0 {
		cfg.Stride = *stride
	}
	if cfg.Stride > cfg.TileSize {
		return fmt.Errorf("stride %d exceeds tile size %d; pass --stride (0 for no overlap)", cfg.Stride, cfg.TileSize)
	}

	log := logger.NewSlogLogger(cfg.LogLevel)
	insp, err := sm.OpenInspector(cfg, log)
	if err != nil {
		return err
	}
	defer insp.Close()

	fmt.Printf("Loading: %s\n", path)
	start := time.Now()
	report, err := insp.TileScores(ctx, path, cfg.TileSize, cfg.Stride, *heatmapOut != "")
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	overall, err := insp.Score(ctx, sm.PixelBuffer{Raster: report.Source})
	if err != nil {
		return err
	}
	scoreMap := report.Result.ScoreMap
	zones := sm.SummarizeZones(scoreMap, report.Result.Width, report.Result.Height)

	fmt.Println()
	fmt.Printf("=== Tile Scores (%.1fs) ===\n", elapsed.Seconds())
	fmt.Printf("  Image size:   %d x %d\n", report.Result.Width, report.Result.Height)
	fmt.Printf("  Tiles:        %d (tile %d, stride %d)\n", len(report.Scores), cfg.TileSize, cfg.Stride)
	fmt.Printf("  Overall:      %.2f (%s)\n", overall, sm.Classify(overall))
	fmt.Printf("  Tile mean:    %.2f\n", scoreMap.Mean())
	fmt.Printf("  Tile max:     %.2f\n", scoreMap.Max())
	n := min(10, len(report.Scores))
	fmt.Printf("  First %d:     %s\n", n, formatScores(report.Scores[:n]))

	if zones != nil {
		fmt.Println()
		fmt.Println("=== Zones (3x3) ===")
		for i, pos := range sm.ZoneOrder {
			z := zones.Zones[pos]
			fmt.Printf("  %-8s mean=%6.2f  max=%6.2f  n=%-3d %s\n", z.Label, z.MeanScore, z.MaxScore, z.TileCount, z.Category)
			if (i+1)%3 == 0 && i < 8 {
				fmt.Println("  ---")
			}
		}
		fmt.Printf("\n  Dirtiest: %s  Cleanest: %s  Spread: %.1f\n", zones.Dirtiest, zones.Cleanest, zones.Spread)
		if !zones.Reliable {
			fmt.Println("  [SOME ZONES HAVE NO TILES]")
		}
	}
	fmt.Println("==============================")

	if report.Overlay != nil {
		if *legend {
			err = sm.RenderReportFile(*report.Overlay, sm.ReportInfo{Score: overall, Tiles: scoreMap, Zones: zones}, *heatmapOut)
		} else {
			err = sm.SaveRaster(*heatmapOut, *report.Overlay)
		}
		if err != nil {
			return fmt.Errorf("writing heatmap: %w", err)
		}
		fmt.Printf("Heatmap saved to %s\n", *heatmapOut)
	}

	history, err := openHistory(cfg)
	if err != nil {
		return err
	}
	if history != nil {
		defer history.Close()
		rec := store.Inspection{
			Path:         path,
			Score:        overall,
			Category:     sm.Classify(overall).String(),
			Tiles:        len(report.Scores),
			MaxTileScore: scoreMap.Max(),
		}
		if _, err := history.Record(rec); err != nil {
			log.Errorf(err, "recording inspection")
		}
	}
	return nil
}

func runPairs(args []string) error {
	fs := flag.NewFlagSet("pairs", flag.ContinueOnError)
	cleanDir := fs.String("clean", "", "directory of clean images")
	dirtyDir := fs.String("dirty", "", "directory of dirty images")
	count := fs.Int("count", 1000, "number of pairs")
	seed := fs.Uint64("seed", 1, "sampler seed")
	out := fs.String("out", "pairs.csv", "output CSV manifest")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *cleanDir == "" || *dirtyDir == "" {
		return errors.New("pairs needs --clean and --dirty")
	}

	cleanPaths, err := sm.ListImages(*cleanDir)
	if err != nil {
		return err
	}
	dirtyPaths, err := sm.ListImages(*dirtyDir)
	if err != nil {
		return err
	}
	sampler, err := sm.NewPairSampler(cleanPaths, dirtyPaths, *seed)
	if err != nil {
		return err
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create manifest: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"a", "b", "label"}); err != nil {
		return err
	}
	for _, p := range sampler.Take(*count) {
		if err := w.Write([]string{p.A, p.B, strconv.Itoa(p.Label)}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	fmt.Printf("Wrote %d pairs to %s\n", *count, *out)
	return nil
}

func runHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML config file")
	limit := fs.Int("limit", 20, "number of entries")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	history, err := openHistory(cfg)
	if err != nil {
		return err
	}
	if history == nil {
		return errors.New("history is disabled (set history_db_path in the config)")
	}
	defer history.Close()

	entries, err := history.Recent(*limit)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf("%s  %7.2f  %-8s  tiles=%-4d max=%7.2f  %s\n",
			e.CreatedAt.Local().Format(time.DateTime), e.Score, e.Category, e.Tiles, e.MaxTileScore, e.Path)
	}
	return nil
}

func openHistory(cfg sm.Config) (*store.Store, error) {
	if cfg.HistoryDBPath == "" {
		return nil, nil
	}
	return store.Open(cfg.HistoryDBPath)
}

func closeEncoder(enc sm.Encoder) {
	if c, ok := enc.(interface{ Close() error }); ok {
		c.Close()
	}
}

func formatScores(scores []float64) string {
	s := "["
	for i, v := range scores {
		if i > 0 {
			s += " "
		}
		s += strconv.FormatFloat(v, 'f', 1, 64)
	}
	return s + "]"
}
