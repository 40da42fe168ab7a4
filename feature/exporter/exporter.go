package exporter

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"collection-tracker/core/storage"
	"collection-tracker/feature/collection"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Exporter renders the joined collection view to flat CSV and JSON
// files. Files are written to a temp path and renamed into place, so a
// concurrent reader only ever observes a complete previous or next file.
// When a storage client is configured the same bytes are additionally
// published to an S3-compatible bucket after the local rename.
type Exporter struct {
	store    *collection.Store
	csvPath  string
	jsonPath string
	logger   *zap.Logger

	client storage.Client
	bucket string
	prefix string
}

// New creates an exporter writing to the given paths.
func New(store *collection.Store, csvPath, jsonPath string, logger *zap.Logger) *Exporter {
	return &Exporter{store: store, csvPath: csvPath, jsonPath: jsonPath, logger: logger}
}

// WithPublisher enables publishing the rendered files to a bucket.
func (e *Exporter) WithPublisher(client storage.Client, bucket, prefix string) *Exporter {
	e.client = client
	e.bucket = bucket
	e.prefix = prefix
	return e
}

// Export renders both files and returns the number of rows written.
func (e *Exporter) Export(ctx context.Context) (int, error) {
	rows, err := e.store.ExportRows()
	if err != nil {
		return 0, fmt.Errorf("loading export rows: %w", err)
	}

	csvData, err := renderCSV(rows)
	if err != nil {
		return 0, err
	}
	jsonData, err := renderJSON(rows)
	if err != nil {
		return 0, err
	}

	if err := writeAtomic(e.csvPath, csvData); err != nil {
		return 0, fmt.Errorf("writing csv export: %w", err)
	}
	if err := writeAtomic(e.jsonPath, jsonData); err != nil {
		return 0, fmt.Errorf("writing json export: %w", err)
	}

	if e.client != nil {
		// Publishing failures leave the local exports intact; the next
		// export retries.
		if err := e.publish(ctx, csvData, jsonData); err != nil {
			e.logger.Warn("Export publish failed", zap.Error(err))
		}
	}

	e.logger.Debug("Export complete", zap.Int("rows", len(rows)))
	return len(rows), nil
}

func (e *Exporter) publish(ctx context.Context, csvData, jsonData []byte) error {
	exists, err := e.client.BucketExists(ctx, e.bucket)
	if err != nil {
		return fmt.Errorf("checking bucket: %w", err)
	}
	if !exists {
		if err := e.client.MakeBucket(ctx, e.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("creating bucket: %w", err)
		}
	}

	uploads := []struct {
		name        string
		data        []byte
		contentType string
	}{
		{filepath.Base(e.csvPath), csvData, "text/csv"},
		{filepath.Base(e.jsonPath), jsonData, "application/json"},
	}
	for _, upload := range uploads {
		objectName := upload.name
		if e.prefix != "" {
			objectName = e.prefix + "/" + objectName
		}
		_, err := e.client.PutObject(ctx, e.bucket, objectName,
			bytes.NewReader(upload.data), int64(len(upload.data)),
			minio.PutObjectOptions{ContentType: upload.contentType})
		if err != nil {
			return fmt.Errorf("uploading %s: %w", objectName, err)
		}
	}
	return nil
}

func renderCSV(rows []collection.ExportRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"arena_id", "quantity", "name", "set", "rarity"}); err != nil {
		return nil, err
	}
	for _, row := range rows {
		record := []string{
			strconv.Itoa(row.ArenaID),
			strconv.Itoa(row.Quantity),
			row.Name,
			row.SetCode,
			row.Rarity,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func renderJSON(rows []collection.ExportRow) ([]byte, error) {
	// Empty collections still export a valid JSON array.
	if rows == nil {
		rows = []collection.ExportRow{}
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// writeAtomic writes data to a sibling temp file and renames it over the
// target, so readers never see a partial file.
func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	temp := path + ".tmp"
	if err := os.WriteFile(temp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(temp, path)
}
