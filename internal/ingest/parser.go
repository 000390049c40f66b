package ingest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parser handles parsing text files with optional YAML frontmatter
type Parser struct{}

// NewParser creates a new parser
func NewParser() *Parser {
	return &Parser{}
}

// Frontmatter represents the YAML frontmatter of a document file
type Frontmatter struct {
	Filename     string         `yaml:"filename"`
	DocumentType string         `yaml:"document_type"`
	Metadata     map[string]any `yaml:"metadata"`
}

// Document is a parsed file ready to be added to the library
type Document struct {
	Path         string
	Filename     string
	Content      string
	DocumentType string
	Metadata     map[string]any
}

// Parse parses a file from disk
func (p *Parser) Parse(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	doc, err := p.ParseReader(file, filepath.Base(path))
	if err != nil {
		return nil, err
	}
	doc.Path = path

	return doc, nil
}

// ParseReader parses text from r. name is used as the filename unless the
// frontmatter overrides it. The content is kept exactly as read, line
// endings and surrounding whitespace included.
func (p *Parser) ParseReader(r io.Reader, name string) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	frontmatter, content, err := p.parseFrontmatter(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse frontmatter in %s: %w", name, err)
	}

	doc := &Document{
		Filename: name,
		Content:  content,
	}
	if frontmatter != nil {
		if frontmatter.Filename != "" {
			doc.Filename = frontmatter.Filename
		}
		doc.DocumentType = frontmatter.DocumentType
		doc.Metadata = frontmatter.Metadata
	}

	return doc, nil
}

// parseFrontmatter extracts YAML frontmatter and returns it with the
// remaining text, which starts right after the closing delimiter line
func (p *Parser) parseFrontmatter(text string) (*Frontmatter, string, error) {
	// Check for frontmatter delimiter
	first, rest, found := strings.Cut(text, "\n")
	if strings.TrimSpace(first) != "---" {
		return nil, text, nil // No frontmatter, return all as content
	}

	var header []string
	for found {
		var line string
		line, rest, found = strings.Cut(rest, "\n")
		if strings.TrimSpace(line) == "---" {
			var fm Frontmatter
			if err := yaml.Unmarshal([]byte(strings.Join(header, "\n")), &fm); err != nil {
				return nil, "", fmt.Errorf("failed to parse YAML: %w", err)
			}
			return &fm, rest, nil
		}
		header = append(header, strings.TrimSuffix(line, "\r"))
	}

	return nil, "", fmt.Errorf("unclosed frontmatter")
}

// ParseAll parses multiple files. Files that fail are reported together in
// the returned error; the rest are still returned.
func (p *Parser) ParseAll(paths []string) ([]Document, error) {
	var docs []Document
	var errors []string

	for _, path := range paths {
		doc, err := p.Parse(path)
		if err != nil {
			errors = append(errors, fmt.Sprintf("%s: %v", path, err))
			continue
		}
		docs = append(docs, *doc)
	}

	if len(errors) > 0 {
		return docs, fmt.Errorf("failed to parse some files:\n%s", strings.Join(errors, "\n"))
	}

	return docs, nil
}
