package pipeline

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/colmmemedsurv/sentinelnode/internal/feed"
	"github.com/colmmemedsurv/sentinelnode/internal/model"
)

// WriteJSON writes v as indented JSON, replacing path atomically. Parent
// directories are created as needed.
func WriteJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return eris.Wrapf(err, "pipeline: encode %s", path)
	}
	return writeFile(path, buf.Bytes())
}

// ReadRecords loads a JSON array of records. The "identifier" and
// "origin_allows_recovery" aliases are accepted.
func ReadRecords(path string) ([]model.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: read %s", path)
	}
	var records []model.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, eris.Wrapf(err, "pipeline: decode %s", path)
	}
	return records, nil
}

// WriteRSSFile renders the curated records to path.
func WriteRSSFile(path string, ch feed.Channel, records []model.Record) error {
	var buf bytes.Buffer
	if err := feed.WriteRSS(&buf, ch, records); err != nil {
		return err
	}
	return writeFile(path, buf.Bytes())
}

// WriteIndex writes the landing page pointing at the published feed.
func WriteIndex(path, feedFile string) error {
	body := "# SentinelNode\n\nCurated RSS feed: **" + feedFile + "**\n"
	return writeFile(path, []byte(body))
}

func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "pipeline: create dir %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return eris.Wrapf(err, "pipeline: create temp for %s", path)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return eris.Wrapf(err, "pipeline: chmod %s", path)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return eris.Wrapf(err, "pipeline: write %s", path)
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrapf(err, "pipeline: close %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return eris.Wrapf(err, "pipeline: replace %s", path)
	}
	return nil
}
