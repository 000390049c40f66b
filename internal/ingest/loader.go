// Package ingest reads document text from plain files.
package ingest

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// SupportedExtensions are the file types the loader reads
var SupportedExtensions = []string{".txt", ".md"}

// Loader handles loading document files
type Loader struct {
	parser *Parser
	logger *slog.Logger
}

// NewLoader creates a new loader
func NewLoader() *Loader {
	return NewLoaderWithLogger(nil)
}

// NewLoaderWithLogger creates a new loader that logs to logger
func NewLoaderWithLogger(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loader{
		parser: NewParser(),
		logger: logger.With("component", "ingest"),
	}
}

// IsSupported reports whether path has a readable extension
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, supported := range SupportedExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// LoadFiles parses the given files. Directories are expanded one level.
func (l *Loader) LoadFiles(paths []string) ([]Document, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if info.IsDir() {
			dirFiles, err := l.listDir(path)
			if err != nil {
				return nil, err
			}
			files = append(files, dirFiles...)
			continue
		}
		if !IsSupported(path) {
			l.logger.Warn("skipping unsupported file", "path", path)
			continue
		}
		files = append(files, path)
	}

	return l.parse(files)
}

// LoadDir parses all supported files in dir
func (l *Loader) LoadDir(dir string) ([]Document, error) {
	// Check if directory exists
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return []Document{}, nil // Not an error, just nothing to load yet
	}

	files, err := l.listDir(dir)
	if err != nil {
		return nil, err
	}

	return l.parse(files)
}

// LoadReader parses a single document from r
func (l *Loader) LoadReader(r io.Reader, name string) (*Document, error) {
	return l.parser.ParseReader(r, name)
}

func (l *Loader) listDir(dir string) ([]string, error) {
	var files []string
	for _, ext := range SupportedExtensions {
		matches, err := filepath.Glob(filepath.Join(dir, "*"+ext))
		if err != nil {
			return nil, fmt.Errorf("failed to glob files: %w", err)
		}
		for _, file := range matches {
			// Skip files starting with _ (convention for meta files)
			if strings.HasPrefix(filepath.Base(file), "_") {
				l.logger.Debug("skipping meta file", "path", file)
				continue
			}
			files = append(files, file)
		}
	}

	l.logger.Debug("found document files", "dir", dir, "count", len(files))

	return files, nil
}

func (l *Loader) parse(files []string) ([]Document, error) {
	if len(files) == 0 {
		return []Document{}, nil
	}

	docs, err := l.parser.ParseAll(files)
	if err != nil {
		l.logger.Warn("some files failed to parse", "parsed", len(docs), "error", err)
		return docs, err
	}

	l.logger.Debug("parsed document files", "count", len(docs))

	return docs, nil
}
