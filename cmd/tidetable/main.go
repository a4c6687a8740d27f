// Command tidetable writes a tide table for a station file as CSV.
//
//	tidetable -station data/raglan_constituents.csv -days 7 -step 10m -out raglan.csv
//	tidetable -station data/raglan.json -extrema
package main

import (
	encsv "encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/gosuri/uiprogress"

	"go.ngs.io/opsdash-tides/internal/adapter/store/stationfile"
	"go.ngs.io/opsdash-tides/internal/domain"
	"go.ngs.io/opsdash-tides/internal/usecase"
)

type options struct {
	station    string
	start      time.Time
	days       int
	step       time.Duration
	noLatitude bool
	extrema    bool
	out        string
	progress   bool
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := run(os.Args[1:], os.Stdout, logger); err != nil {
		logger.Error("tidetable failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer, logger *slog.Logger) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	st, err := stationfile.Load(opts.station)
	if err != nil {
		return err
	}
	pred, err := st.Predictor(!opts.noLatitude, logger)
	if err != nil {
		return err
	}
	logger.Info("generating tide table",
		"station", st.ID,
		"constituents", len(pred.Names()),
		"start", opts.start.Format(time.RFC3339),
		"days", opts.days,
	)

	// The bar shares the terminal with CSV on stdout, so it is only drawn
	// when writing to a file.
	var bar *uiprogress.Bar
	if opts.progress && opts.out != "" {
		uiprogress.Start()
		defer uiprogress.Stop()
		bar = uiprogress.AddBar(opts.days).AppendCompleted().PrependElapsed()
	}

	levels := generate(pred, opts, bar)
	write := func(w io.Writer) error { return writeTable(w, st, levels, opts.extrema) }

	if opts.out == "" {
		return write(stdout)
	}
	//nolint:gosec // G304: Output path comes from the command line.
	f, err := os.Create(opts.out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", opts.out, err)
	}
	if err := writeAndClose(f, write); err != nil {
		return fmt.Errorf("%s: %w", opts.out, err)
	}
	return nil
}

// writeAndClose runs write against wc and reports the first of the write and
// close errors.
func writeAndClose(wc io.WriteCloser, write func(io.Writer) error) (err error) {
	defer func() {
		if cerr := wc.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close output: %w", cerr)
		}
	}()
	return write(wc)
}

func writeTable(out io.Writer, st domain.Station, levels []domain.TideLevel, extrema bool) error {
	w := encsv.NewWriter(out)
	if extrema {
		writeExtrema(w, st, levels)
	} else {
		writeLevels(w, levels)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}
	return nil
}

func parseFlags(args []string) (options, error) {
	fs := flag.NewFlagSet("tidetable", flag.ContinueOnError)
	var (
		opts     options
		startStr string
	)
	fs.StringVar(&opts.station, "station", "", "Station file (.csv or .json)")
	fs.StringVar(&startStr, "start", "", "Start time in RFC3339 (default: today 00:00 UTC)")
	fs.IntVar(&opts.days, "days", 7, "Number of days")
	fs.DurationVar(&opts.step, "step", 10*time.Minute, "Sample interval")
	fs.BoolVar(&opts.noLatitude, "no-latitude", false, "Skip latitude-dependent nodal corrections")
	fs.BoolVar(&opts.extrema, "extrema", false, "Write only highs and lows")
	fs.StringVar(&opts.out, "out", "", "Output file (default: stdout)")
	fs.BoolVar(&opts.progress, "progress", true, "Show a progress bar when writing to a file")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if opts.station == "" {
		return options{}, errors.New("-station is required")
	}
	if opts.days < 1 || opts.days > 366 {
		return options{}, fmt.Errorf("-days must be between 1 and 366, got %d", opts.days)
	}
	if opts.step < time.Minute || opts.step > 6*time.Hour {
		return options{}, fmt.Errorf("-step must be between 1m and 6h, got %s", opts.step)
	}

	if startStr == "" {
		opts.start = time.Now().UTC().Truncate(24 * time.Hour)
	} else {
		start, err := time.Parse(time.RFC3339, startStr)
		if err != nil {
			return options{}, fmt.Errorf("invalid -start: %w", err)
		}
		opts.start = start.UTC()
	}
	return opts, nil
}

// generate samples the whole table a day at a time; the final sample sits on
// the end boundary.
func generate(pred *domain.Predictor, opts options, bar *uiprogress.Bar) []domain.TideLevel {
	const day = 24 * time.Hour
	perDay := int(day / opts.step)
	levels := make([]domain.TideLevel, 0, perDay*opts.days+1)

	for d := 0; d < opts.days; d++ {
		dayStart := opts.start.Add(time.Duration(d) * day)
		for t, h := range pred.Series(dayStart, day, opts.step) {
			if !t.Before(dayStart.Add(day)) {
				break
			}
			levels = append(levels, domain.TideLevel{Time: t, HeightM: h})
		}
		if bar != nil {
			bar.Incr()
		}
	}

	end := opts.start.Add(time.Duration(opts.days) * day)
	levels = append(levels, domain.TideLevel{Time: end, HeightM: pred.Height(end)})
	return levels
}

func writeLevels(w *encsv.Writer, levels []domain.TideLevel) {
	_ = w.Write([]string{"time", "height_m"})
	for _, l := range levels {
		_ = w.Write([]string{l.Time.Format(time.RFC3339), formatHeight(l.HeightM)})
	}
}

func writeExtrema(w *encsv.Writer, st domain.Station, levels []domain.TideLevel) {
	type row struct {
		level domain.TideLevel
		kind  domain.ExtremeKind
	}

	ext := domain.RefineExtrema(levels, domain.FindExtrema(levels))
	rows := make([]row, 0, len(ext.Highs)+len(ext.Lows))
	for _, l := range ext.Highs {
		rows = append(rows, row{l, domain.HighTide})
	}
	for _, l := range ext.Lows {
		rows = append(rows, row{l, domain.LowTide})
	}
	slices.SortFunc(rows, func(a, b row) int { return a.level.Time.Compare(b.level.Time) })

	header := []string{"time", "height_m", "kind"}
	withSun := st.Latitude != nil && st.Longitude != nil
	if withSun {
		header = append(header, "daylight")
	}
	_ = w.Write(header)

	for _, r := range rows {
		rec := []string{r.level.Time.Format(time.RFC3339), formatHeight(r.level.HeightM), r.kind.String()}
		if withSun {
			rec = append(rec, strconv.FormatBool(usecase.IsDaylight(*st.Latitude, *st.Longitude, r.level.Time)))
		}
		_ = w.Write(rec)
	}
}

func formatHeight(h float64) string {
	return strconv.FormatFloat(h, 'f', 3, 64)
}
