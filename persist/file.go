package persist

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// FileMedium stores each collection as a directory of JSON files, one
// document per file, the document body written verbatim. Writes are atomic:
// a temp file is written and renamed into place.
type FileMedium struct {
	baseDir string
	logger  *zap.Logger
}

// NewFileMedium creates a file-backed medium rooted at baseDir.
func NewFileMedium(baseDir string, logger *zap.Logger) (*FileMedium, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create medium directory: %w", err)
	}
	return &FileMedium{
		baseDir: baseDir,
		logger:  logger.With(zap.String("component", "file_medium")),
	}, nil
}

// docPath escapes the document ID so names containing path separators (for
// example workspace:file:src/index) stay within the collection directory.
func (m *FileMedium) docPath(collection, id string) string {
	return filepath.Join(m.baseDir, collection, url.PathEscape(id)+".json")
}

// Write upserts docs into the collection directory.
func (m *FileMedium) Write(ctx context.Context, collection string, docs []Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Join(m.baseDir, collection)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create collection directory: %w", err)
	}

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := m.docPath(collection, doc.ID)
		tempPath := path + ".tmp"
		if err := os.WriteFile(tempPath, doc.Body, 0o644); err != nil {
			return fmt.Errorf("write document %q: %w", doc.ID, err)
		}
		if err := os.Rename(tempPath, path); err != nil {
			return fmt.Errorf("commit document %q: %w", doc.ID, err)
		}
	}
	return nil
}

// Read returns every document in the collection, ordered by ID.
func (m *FileMedium) Read(ctx context.Context, collection string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := filepath.Join(m.baseDir, collection)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read collection directory: %w", err)
	}

	var out []Document
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		id, err := url.PathUnescape(strings.TrimSuffix(name, ".json"))
		if err != nil {
			m.logger.Warn("skipping unparseable document file", zap.String("file", name))
			continue
		}
		body, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read document %q: %w", id, err)
		}
		out = append(out, Document{ID: id, Body: body})
	}
	return out, nil
}

// Delete removes the identified documents. Missing files are not an error.
func (m *FileMedium) Delete(ctx context.Context, collection string, ids []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, id := range ids {
		err := os.Remove(m.docPath(collection, id))
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("delete document %q: %w", id, err)
		}
	}
	return nil
}
