package processing

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ademuri/market-insight-tools/internal/logger"
)

const timestampLayout = "20060102_150405"

// RawData is the raw collection snapshot persisted for one market run.
type RawData struct {
	Market    string        `json:"market"`
	Playlists []RawPlaylist `json:"playlists"`
	Timestamp time.Time     `json:"timestamp"`
}

// Writer persists run artifacts. Each artifact is written to a temporary file
// in its target directory and renamed into place.
type Writer struct {
	RawDataDir       string
	ProcessedDataDir string
	AnalyticsDir     string

	// Now stamps artifact names. Defaults to time.Now.
	Now func() time.Time
}

func (w *Writer) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

func (w *Writer) path(dir, marketCode, kind, ext string) string {
	name := fmt.Sprintf("%s_%s_%s.%s", marketCode, kind, w.now().Format(timestampLayout), ext)
	return filepath.Join(dir, name)
}

// SaveRawData writes data as indented JSON and returns the file path.
func (w *Writer) SaveRawData(marketCode string, data RawData) (string, error) {
	path := w.path(w.RawDataDir, marketCode, "raw", "json")
	if err := writeAtomic(path, func(f io.Writer) error { return encodeJSON(f, data) }); err != nil {
		return "", fmt.Errorf("saving raw data: %w", err)
	}
	logger.Info("Raw data saved to %s", path)
	return path, nil
}

// SaveTable writes records as CSV with a header row. An empty table produces
// a header-only file.
func (w *Writer) SaveTable(marketCode string, records []FlatTrackRecord) (string, error) {
	if len(records) == 0 {
		logger.Warn("Empty table, creating file with headers only")
	}
	path := w.path(w.ProcessedDataDir, marketCode, "processed", "csv")
	if err := writeAtomic(path, func(f io.Writer) error { return WriteTable(f, records) }); err != nil {
		return "", fmt.Errorf("saving processed data: %w", err)
	}
	logger.Info("Processed data saved to %s", path)
	return path, nil
}

// SaveInsights writes v as indented JSON and returns the file path.
func (w *Writer) SaveInsights(marketCode string, v interface{}) (string, error) {
	path := w.path(w.AnalyticsDir, marketCode, "insights", "json")
	if err := writeAtomic(path, func(f io.Writer) error { return encodeJSON(f, v) }); err != nil {
		return "", fmt.Errorf("saving insights: %w", err)
	}
	logger.Info("Insights saved to %s", path)
	return path, nil
}

// WriteTable writes the CSV form of records to out.
func WriteTable(out io.Writer, records []FlatTrackRecord) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(TableHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.PlaylistName,
			r.PlaylistID,
			r.TrackName,
			r.TrackID,
			r.Artists,
			strconv.Itoa(r.Popularity),
			strconv.FormatBool(r.Explicit),
			strconv.Itoa(r.DurationMs),
			r.Genres,
			strconv.Itoa(r.ArtistCount),
			strconv.Itoa(r.GenreCount),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// LoadRawData reads a raw snapshot written by SaveRawData. Playlists go
// through NormalizePlaylists, so hand-edited or partial files load with
// malformed entries skipped.
func LoadRawData(path string) (RawData, NormalizeResult, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return RawData{}, NormalizeResult{}, fmt.Errorf("reading raw data: %w", err)
	}

	var envelope struct {
		Market    string          `json:"market"`
		Playlists json.RawMessage `json:"playlists"`
		Timestamp time.Time       `json:"timestamp"`
	}
	if err := json.Unmarshal(b, &envelope); err != nil {
		return RawData{}, NormalizeResult{}, fmt.Errorf("decoding raw data %s: %w", path, err)
	}

	var res NormalizeResult
	if len(envelope.Playlists) > 0 && string(envelope.Playlists) != "null" {
		res, err = ParsePlaylists(envelope.Playlists)
		if err != nil {
			return RawData{}, NormalizeResult{}, fmt.Errorf("decoding raw data %s: %w", path, err)
		}
	}

	return RawData{
		Market:    envelope.Market,
		Playlists: res.Playlists,
		Timestamp: envelope.Timestamp,
	}, res, nil
}

func encodeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func writeAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming into %s: %w", path, err)
	}
	return nil
}
