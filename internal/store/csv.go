package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"springwatch/internal/domain"
)

// ListingsHeader is the first row of every listings file.
var ListingsHeader = []string{"Company", "Title", "Category", "Url"}

// ReadRows reads a CSV file with a header row into header-keyed maps.
// A missing file reads as no rows.
func ReadRows(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header %s: %w", path, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var out []map[string]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		row := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(rec) {
				row[h] = rec[i]
			}
		}
		out = append(out, row)
	}
	return out, nil
}

// ReadMailingList returns the trimmed, non-empty values of the email column.
func ReadMailingList(path string) ([]string, error) {
	rows, err := ReadRows(path)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, r := range rows {
		if e := strings.TrimSpace(r["email"]); e != "" {
			out = append(out, e)
		}
	}
	return out, nil
}

// WriteListings replaces path with the given listings. The file is written
// next to path and renamed over it, so readers never see a partial file.
func WriteListings(path string, listings []domain.Listing) (string, int, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", 0, err
		}
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return "", 0, err
	}

	if err := writeListings(f, listings); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", 0, fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", 0, err
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", 0, err
	}

	log.Printf("[store] %d listings exported to %s", len(listings), path)
	return path, len(listings), nil
}

func writeListings(w io.Writer, listings []domain.Listing) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ListingsHeader); err != nil {
		return err
	}
	for _, l := range listings {
		if err := cw.Write(l.Row()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
