// Package fetcher loads observation histories from app export files.
// Supported formats: CSV, XLSX, and JSON, detected by file extension.
package fetcher

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/flarelog/insight-cli/internal/model"
)

// Tabular export columns. Header names are matched case-insensitively.
const (
	colID            = "id"
	colRecordedAt    = "recorded_at"
	colSkinIntensity = "skin_intensity"
	colFeeling       = "feeling"
	colPain          = "pain"
	colSleep         = "sleep"
	colMood          = "mood"
	colSymptoms      = "symptoms"
	colTags          = "tags"
)

// LoadFile reads observations from path, dispatching on the extension.
func LoadFile(path string) ([]model.Observation, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(path)
	case ".xlsx":
		return ReadXLSX(path, XLSXOptions{})
	case ".json":
		return ReadJSON(path)
	default:
		return nil, eris.Errorf("fetcher: unsupported file type %q", filepath.Ext(path))
	}
}

// ReadJSON reads a JSON array of observations.
func ReadJSON(path string) ([]model.Observation, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: read json")
	}
	var out []model.Observation
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, eris.Wrapf(err, "fetcher: parse json %s", path)
	}
	return out, nil
}

// headerIndex maps lowercased column names to their positions.
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

// parseRows converts tabular rows (header first) into observations. Rows
// shorter than the header are padded; blank rows are skipped.
func parseRows(rows [][]string, source string) ([]model.Observation, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	idx := headerIndex(rows[0])
	if _, ok := idx[colRecordedAt]; !ok {
		return nil, eris.Errorf("fetcher: %s: missing required column %q", source, colRecordedAt)
	}

	out := make([]model.Observation, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		o, err := parseRecord(idx, row)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: %s: row %d", source, n+2)
		}
		out = append(out, o)
	}
	return out, nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func field(idx map[string]int, row []string, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseRecord(idx map[string]int, row []string) (model.Observation, error) {
	var o model.Observation

	o.ID = field(idx, row, colID)

	recordedAt, err := parseTimestamp(field(idx, row, colRecordedAt))
	if err != nil {
		return o, err
	}
	o.RecordedAt = recordedAt

	if v := field(idx, row, colSkinIntensity); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return o, eris.Wrapf(err, "parse skin_intensity %q", v)
		}
		o.SkinIntensity = &f
	}
	for _, scale := range []struct {
		name string
		dst  **int
	}{
		{colFeeling, &o.Feeling},
		{colPain, &o.Pain},
		{colSleep, &o.Sleep},
		{colMood, &o.Mood},
	} {
		if v := field(idx, row, scale.name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return o, eris.Wrapf(err, "parse %s %q", scale.name, v)
			}
			*scale.dst = &n
		}
	}

	if v := field(idx, row, colSymptoms); v != "" {
		symptoms, err := parseSymptoms(v)
		if err != nil {
			return o, err
		}
		o.Symptoms = symptoms
	}
	if v := field(idx, row, colTags); v != "" {
		o.Tags = parseTags(v)
	}

	return o, nil
}

// parseTimestamp accepts RFC 3339 or a bare ISO date.
func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, eris.New("recorded_at is empty")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return time.Time{}, eris.Errorf("unparseable recorded_at %q", s)
	}
	return t, nil
}

// parseSymptoms parses "itching=2;redness=1.5" into symptom entries.
func parseSymptoms(s string) ([]model.SymptomEntry, error) {
	parts := strings.Split(s, ";")
	out := make([]model.SymptomEntry, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		name, sev, ok := strings.Cut(p, "=")
		if !ok {
			return nil, eris.Errorf("malformed symptom %q", p)
		}
		severity, err := strconv.ParseFloat(strings.TrimSpace(sev), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "parse symptom severity %q", sev)
		}
		out = append(out, model.SymptomEntry{Name: strings.TrimSpace(name), Severity: severity})
	}
	return out, nil
}

// parseTags parses "food:dairy|stress" into tag strings.
func parseTags(s string) []string {
	parts := strings.Split(s, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
