package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// StationFiles maps normalized station IDs to the files in dir named
// <id><suffix>. Names are matched case-insensitively, so Raglan.json serves
// "raglan". When two files normalize to the same ID the first in directory
// order wins.
func StationFiles(dir, suffix string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	files := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if len(name) <= len(suffix) || !strings.EqualFold(name[len(name)-len(suffix):], suffix) {
			continue
		}
		id, err := NormalizeID(name[:len(name)-len(suffix)])
		if err != nil {
			continue
		}
		if _, dup := files[id]; !dup {
			files[id] = filepath.Join(dir, name)
		}
	}
	return files, nil
}

// StationIDs returns the sorted keys of StationFiles.
func StationIDs(dir, suffix string) ([]string, error) {
	files, err := StationFiles(dir, suffix)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(files))
	for id := range files {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// FindStationFile returns the file in dir serving the normalized id. The
// exact name <id><suffix> is tried before scanning the directory.
func FindStationFile(dir, id, suffix string) (string, error) {
	path := filepath.Join(dir, id+suffix)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	files, err := StationFiles(dir, suffix)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrStationNotFound, id)
	}
	if err != nil {
		return "", err
	}
	path, ok := files[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrStationNotFound, id)
	}
	return path, nil
}
