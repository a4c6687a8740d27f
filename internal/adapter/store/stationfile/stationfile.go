// Package stationfile loads a single station from a path, picking the parser
// by file extension.
package stationfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	csvstore "go.ngs.io/opsdash-tides/internal/adapter/store/csv"
	"go.ngs.io/opsdash-tides/internal/adapter/store/opsdash"
	"go.ngs.io/opsdash-tides/internal/domain"
)

// Load reads a .csv or .json station file. The station ID is the file name
// without extension or a trailing "_constituents".
func Load(path string) (domain.Station, error) {
	//nolint:gosec // G304: Station path comes from the command line.
	f, err := os.Open(path)
	if err != nil {
		return domain.Station{}, fmt.Errorf("failed to open station file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var st domain.Station
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		st, err = csvstore.Parse(f)
	case ".json":
		st, err = opsdash.Decode(f)
	default:
		return domain.Station{}, fmt.Errorf("unsupported station file %s: want .csv or .json", path)
	}
	if err != nil {
		return domain.Station{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	st.ID = strings.ToLower(strings.TrimSuffix(id, "_constituents"))
	if st.Name == "" {
		st.Name = st.ID
	}
	return st, nil
}
