// Command fieldpick synthesizes a star field and runs the point-source
// quality pipeline over it end to end. Useful for eyeballing detector and
// fitter behavior without a viewer attached.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/ejeschke/ginga-sub005/internal/log"
	"github.com/ejeschke/ginga-sub005/pkg/iqcalc"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("fieldpick", flag.ContinueOnError)
	width := fs.Int("width", 512, "field width in pixels")
	height := fs.Int("height", 512, "field height in pixels")
	numStars := fs.Int("stars", 40, "number of synthetic stars")
	starSigma := fs.Float64("sigma", 2.5, "gaussian sigma of synthetic stars (px)")
	bg := fs.Float64("background", 100.0, "background level")
	noise := fs.Float64("noise", 2.0, "uniform noise amplitude")
	method := fs.String("method", "gaussian", "fit method: gaussian|moffat")
	criteriaPath := fs.String("criteria", "", "YAML file with selection criteria")
	plateScale := fs.Float64("scale", 0.0, "plate scale in degrees/px (0 = skip angular size)")
	seed := fs.Int64("seed", 1, "RNG seed for the synthetic field")
	logLevel := fs.String("log", "info", "log level: debug|info|warn|error")
	if err := fs.Parse(args); err != nil {
		return err
	}
	log.Init(*logLevel)

	params := iqcalc.NewPickParams()
	m, err := iqcalc.ParseFitMethod(*method)
	if err != nil {
		return err
	}
	params.Method = m

	if *criteriaPath != "" {
		criteria, err := loadCriteria(*criteriaPath)
		if err != nil {
			return fmt.Errorf("loading criteria: %w", err)
		}
		params.Criteria = criteria
	}

	field := synthesizeField(*width, *height, *numStars, *starSigma, *bg, *noise, *seed)

	startTime := time.Now()
	peaks := iqcalc.FindPeaks(field, params.Threshold, params.Sigma, params.Radius)
	if len(peaks) == 0 {
		return iqcalc.ErrNoPeaksFound
	}

	fitter := iqcalc.NewFitter(params.Method)
	params.Progress = func(done, total int) {
		if done == total {
			fmt.Printf("Evaluated %d/%d peaks\n", done, total)
		}
	}
	candidates, err := iqcalc.Evaluate(context.Background(), field, peaks, fitter, params)
	if err != nil {
		return err
	}
	selected := iqcalc.Select(candidates, field.Width(), field.Height(), params.Criteria)
	elapsed := time.Since(startTime)

	fmt.Println()
	fmt.Printf("=== Field Pick Results (%.2fs) ===\n", elapsed.Seconds())
	fmt.Printf("  Field size:      %d x %d\n", field.Width(), field.Height())
	fmt.Printf("  Peaks detected:  %d\n", len(peaks))
	fmt.Printf("  Evaluated:       %d\n", len(candidates))
	fmt.Printf("  Selected:        %d\n", len(selected))

	if len(selected) == 0 {
		fmt.Println("==============================")
		return iqcalc.ErrNoCandidateMatched
	}

	top := selected[0]
	fmt.Printf("  Top candidate:   (%.2f, %.2f)\n", top.ObjX, top.ObjY)
	fmt.Printf("  FWHM:            %.3f px (x=%.3f, y=%.3f)\n", top.FWHM, top.FWHMX, top.FWHMY)
	fmt.Printf("  Ellipticity:     %.3f\n", top.Ellipticity)
	fmt.Printf("  Brightness:      %.1f above background %.1f\n", top.Brightness, top.Background)
	fmt.Printf("  Sky level:       %.1f\n", top.Skylevel)
	if !math.IsNaN(top.OidX) {
		fmt.Printf("  Centroid:        (%.2f, %.2f)\n", top.OidX, top.OidY)
	}
	if *plateScale > 0 {
		size := iqcalc.StarSize(top.FWHMX, *plateScale, top.FWHMY, *plateScale)
		fmt.Printf("  Angular size:    %.3f\"\n", size)
	}
	fmt.Println("==============================")

	if quality := iqcalc.AnalyzeFieldQuality(selected, field.Width(), field.Height()); quality != nil {
		fmt.Println()
		fmt.Println("=== Field Quality (3x3) ===")
		zoneOrder := []iqcalc.ZonePosition{
			iqcalc.ZoneTopLeft, iqcalc.ZoneTop, iqcalc.ZoneTopRight,
			iqcalc.ZoneLeft, iqcalc.ZoneCenter, iqcalc.ZoneRight,
			iqcalc.ZoneBottomLeft, iqcalc.ZoneBottom, iqcalc.ZoneBottomRight,
		}
		for i, pos := range zoneOrder {
			z := quality.Zones[pos]
			fmt.Printf("  %-8s FWHM=%.3f  n=%d\n", z.Label, z.MedianFWHM, z.CandidateCount)
			if (i+1)%3 == 0 && i < 8 {
				fmt.Println("  ---")
			}
		}
		fmt.Printf("\n  Tilt:     %.1f%% (best: %s, worst: %s)\n", quality.TiltPct, quality.BestCorner, quality.WorstCorner)
		fmt.Printf("  Off-axis: %.1f%%\n", quality.OffAxisPct)
		if !quality.Reliable {
			fmt.Println("  [LOW CANDIDATE COUNT - UNRELIABLE]")
		}
		fmt.Println("==============================")
	}

	return nil
}

func loadCriteria(path string) (iqcalc.SelectionCriteria, error) {
	criteria := iqcalc.DefaultSelectionCriteria()
	b, err := os.ReadFile(path)
	if err != nil {
		return criteria, err
	}
	if err := yaml.Unmarshal(b, &criteria); err != nil {
		return criteria, err
	}
	return criteria, nil
}

func synthesizeField(width, height, numStars int, sigma, bg, noise float64, seed int64) *iqcalc.Field {
	rng := rand.New(rand.NewSource(seed))
	field := iqcalc.NewEmptyField(width, height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			field.Set(x, y, bg+noise*(rng.Float64()-0.5))
		}
	}

	margin := 10.0
	for i := 0; i < numStars; i++ {
		cx := margin + rng.Float64()*(float64(width)-2*margin)
		cy := margin + rng.Float64()*(float64(height)-2*margin)
		amp := 500.0 + rng.Float64()*4500.0
		addStar(field, cx, cy, sigma, amp)
	}
	return field
}

func addStar(f *iqcalc.Field, cx, cy, sigma, amp float64) {
	r := int(math.Ceil(sigma * 5))
	x0 := int(math.Max(0, math.Floor(cx)-float64(r)))
	x1 := int(math.Min(float64(f.Width()-1), math.Floor(cx)+float64(r)))
	y0 := int(math.Max(0, math.Floor(cy)-float64(r)))
	y1 := int(math.Min(float64(f.Height()-1), math.Floor(cy)+float64(r)))
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			dx := float64(x) - cx
			dy := float64(y) - cy
			v := amp * math.Exp(-(dx*dx+dy*dy)/(2*sigma*sigma))
			f.Set(x, y, f.At(x, y)+v)
		}
	}
}
