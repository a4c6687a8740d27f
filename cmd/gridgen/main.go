// Command gridgen writes synthetic FES-style NetCDF grids around a station so
// the lat/lon lookup path can be exercised without the FES distribution.
//
// For every known constituent in the station file it writes
// <name>_amplitude.nc (meters) and <name>_phase.nc (degrees) on a regular
// lat/lon box centred on the station. The centre node carries the station's
// own constants; amplitude tapers and phase drifts smoothly away from it.
//
//	gridgen -station data/raglan.json -out data/fes -radius 5 -resolution 0.1
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fhs/go-netcdf/netcdf"
	"github.com/gosuri/uiprogress"

	"go.ngs.io/opsdash-tides/internal/adapter/store/stationfile"
	"go.ngs.io/opsdash-tides/internal/domain"
)

// box is a regular lat/lon grid. Longitudes are in [0, 360).
type box struct {
	lat []float64
	lon []float64
}

type options struct {
	station    string
	out        string
	lat, lon   float64
	radius     float64
	resolution float64
	progress   bool
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := run(os.Args[1:], logger); err != nil {
		logger.Error("gridgen failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string, logger *slog.Logger) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	st, err := stationfile.Load(opts.station)
	if err != nil {
		return err
	}
	lat, lon, err := centre(st, opts)
	if err != nil {
		return err
	}
	b, err := newBox(lat, lon, opts.radius, opts.resolution)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(st.Constituents))
	for name := range st.Constituents {
		if _, ok := domain.Resolve(name); !ok {
			logger.Warn("skipping unknown constituent", "constituent", name)
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) == 0 {
		return errors.New("station has no known constituents")
	}

	if err := os.MkdirAll(opts.out, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	logger.Info("generating grids",
		"station", st.ID,
		"lat", lat,
		"lon", lon,
		"nlat", len(b.lat),
		"nlon", len(b.lon),
		"constituents", len(names),
	)

	var bar *uiprogress.Bar
	if opts.progress {
		uiprogress.Start()
		defer uiprogress.Stop()
		bar = uiprogress.AddBar(len(names)).AppendCompleted().PrependElapsed()
		bar.PrependFunc(func(pb *uiprogress.Bar) string {
			if i := pb.Current(); i < len(names) {
				return fmt.Sprintf("%-5s", names[i])
			}
			return "done "
		})
	}

	for _, name := range names {
		amp, pha := b.fields(lat, lon, st.Constituents[name])
		base := filepath.Join(opts.out, strings.ToLower(name))
		if err := writeGrid(base+"_amplitude.nc", b, amp, "amplitude", "m", name); err != nil {
			return fmt.Errorf("%s amplitude: %w", name, err)
		}
		if err := writeGrid(base+"_phase.nc", b, pha, "phase", "degrees", name); err != nil {
			return fmt.Errorf("%s phase: %w", name, err)
		}
		if bar != nil {
			bar.Incr()
		}
	}

	logger.Info("grids written", "dir", opts.out, "files", 2*len(names))
	return nil
}

func parseFlags(args []string) (options, error) {
	fs := flag.NewFlagSet("gridgen", flag.ContinueOnError)
	var opts options
	fs.StringVar(&opts.station, "station", "", "Station file (.csv or .json)")
	fs.StringVar(&opts.out, "out", "./data/fes", "Output directory for NetCDF files")
	fs.Float64Var(&opts.lat, "lat", math.NaN(), "Centre latitude (default: station latitude)")
	fs.Float64Var(&opts.lon, "lon", math.NaN(), "Centre longitude (default: station longitude)")
	fs.Float64Var(&opts.radius, "radius", 5, "Half-width of the grid in degrees")
	fs.Float64Var(&opts.resolution, "resolution", 0.1, "Grid resolution in degrees")
	fs.BoolVar(&opts.progress, "progress", true, "Show a progress bar")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.station == "" {
		return options{}, errors.New("-station is required")
	}
	if opts.resolution <= 0 || opts.radius <= 0 {
		return options{}, errors.New("-radius and -resolution must be positive")
	}
	if opts.radius/opts.resolution > 1800 {
		return options{}, fmt.Errorf("grid too large: %.0f nodes per side", 2*opts.radius/opts.resolution+1)
	}
	return opts, nil
}

func centre(st domain.Station, opts options) (float64, float64, error) {
	lat, lon := opts.lat, opts.lon
	if math.IsNaN(lat) && st.Latitude != nil {
		lat = *st.Latitude
	}
	if math.IsNaN(lon) && st.Longitude != nil {
		lon = *st.Longitude
	}
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return 0, 0, errors.New("station has no position; pass -lat and -lon")
	}
	if lat < -90 || lat > 90 {
		return 0, 0, fmt.Errorf("latitude %v out of range", lat)
	}
	lon = math.Mod(lon, 360)
	if lon < 0 {
		lon += 360
	}
	return lat, lon, nil
}

// newBox centres a grid node on (lat, lon).
func newBox(lat, lon, radius, res float64) (box, error) {
	n := int(math.Round(radius / res))
	b := box{lat: make([]float64, 0, 2*n+1), lon: make([]float64, 0, 2*n+1)}
	for i := -n; i <= n; i++ {
		y := lat + float64(i)*res
		if y < -90 || y > 90 {
			continue
		}
		b.lat = append(b.lat, y)
	}
	for i := -n; i <= n; i++ {
		b.lon = append(b.lon, lon+float64(i)*res)
	}
	if b.lon[0] < 0 || b.lon[len(b.lon)-1] >= 360 {
		return box{}, fmt.Errorf("grid around longitude %v crosses the prime meridian; reduce -radius", lon)
	}
	return b, nil
}

// fields returns row-major [lat][lon] amplitude in meters and phase in
// degrees for one constituent.
func (b box) fields(lat0, lon0 float64, h domain.Harmonic) ([]float64, []float64) {
	amp := make([]float64, 0, len(b.lat)*len(b.lon))
	pha := make([]float64, 0, len(b.lat)*len(b.lon))
	phase0 := domain.Rad2Deg(h.PhaseRad)

	for _, y := range b.lat {
		for _, x := range b.lon {
			dy, dx := y-lat0, x-lon0
			dist := math.Hypot(dy, dx)

			// Cosine taper, floored at half the station amplitude.
			taper := math.Max(math.Cos(dist*math.Pi/20), 0.5)
			ripple := 1 + 0.15*math.Sin(dy*math.Pi/15) + 0.1*math.Sin(dx*math.Pi/20)
			amp = append(amp, h.AmplitudeM*taper*ripple)

			p := math.Mod(phase0+2*dist+10*math.Sin(dy*math.Pi/30)+8*math.Sin(dx*math.Pi/40), 360)
			if p < 0 {
				p += 360
			}
			pha = append(pha, p)
		}
	}
	return amp, pha
}

func writeGrid(path string, b box, data []float64, varName, units, constituent string) (err error) {
	ds, err := netcdf.CreateFile(path, netcdf.CLOBBER|netcdf.NETCDF4)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := ds.Close(); err == nil {
			err = cerr
		}
	}()

	latDim, err := ds.AddDim("lat", uint64(len(b.lat)))
	if err != nil {
		return err
	}
	lonDim, err := ds.AddDim("lon", uint64(len(b.lon)))
	if err != nil {
		return err
	}
	latVar, err := ds.AddVar("lat", netcdf.DOUBLE, []netcdf.Dim{latDim})
	if err != nil {
		return err
	}
	lonVar, err := ds.AddVar("lon", netcdf.DOUBLE, []netcdf.Dim{lonDim})
	if err != nil {
		return err
	}
	dataVar, err := ds.AddVar(varName, netcdf.DOUBLE, []netcdf.Dim{latDim, lonDim})
	if err != nil {
		return err
	}
	if err := latVar.Attr("units").WriteBytes([]byte("degrees_north")); err != nil {
		return err
	}
	if err := lonVar.Attr("units").WriteBytes([]byte("degrees_east")); err != nil {
		return err
	}
	if err := dataVar.Attr("units").WriteBytes([]byte(units)); err != nil {
		return err
	}
	if err := dataVar.Attr("constituent").WriteBytes([]byte(constituent)); err != nil {
		return err
	}

	if err := ds.EndDef(); err != nil {
		return err
	}
	if err := latVar.WriteFloat64s(b.lat); err != nil {
		return err
	}
	if err := lonVar.WriteFloat64s(b.lon); err != nil {
		return err
	}
	return dataVar.WriteFloat64s(data)
}
