package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParseWithFrontmatter(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "cbc.md", `---
filename: CBC March
document_type: Laboratory Results
metadata:
  clinic: Riverside
  fasting: true
---
Hemoglobin: 13.5 g/dL
`)

	doc, err := NewParser().Parse(path)
	require.NoError(t, err)
	assert.Equal(t, path, doc.Path)
	assert.Equal(t, "CBC March", doc.Filename)
	assert.Equal(t, "Laboratory Results", doc.DocumentType)
	assert.Equal(t, "Hemoglobin: 13.5 g/dL\n", doc.Content)
	assert.Equal(t, map[string]any{"clinic": "Riverside", "fasting": true}, doc.Metadata)
}

func TestParseWithoutFrontmatter(t *testing.T) {
	doc, err := NewParser().ParseReader(strings.NewReader("Take aspirin daily.\nSecond line."), "rx.txt")
	require.NoError(t, err)
	assert.Equal(t, "rx.txt", doc.Filename)
	assert.Equal(t, "Take aspirin daily.\nSecond line.", doc.Content)
	assert.Empty(t, doc.DocumentType)
	assert.Nil(t, doc.Metadata)
}

func TestParseKeepsContentAsRead(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantType string
		want     string
	}{
		{"plain text", "  Line one\r\nLine two  \r\n\n", "", "  Line one\r\nLine two  \r\n\n"},
		{"crlf frontmatter", "---\r\ndocument_type: Note\r\n---\r\n  body\r\n", "Note", "  body\r\n"},
		{"delimiter on last line", "---\ndocument_type: Note\n---", "Note", ""},
		{"dashes later in text", "intro\n---\nmore", "", "intro\n---\nmore"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := NewParser().ParseReader(strings.NewReader(tt.text), "note.txt")
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, doc.DocumentType)
			assert.Equal(t, tt.want, doc.Content)
		})
	}
}

func TestParseEmpty(t *testing.T) {
	doc, err := NewParser().ParseReader(strings.NewReader(""), "empty.txt")
	require.NoError(t, err)
	assert.Empty(t, doc.Content)
}

func TestParseUnclosedFrontmatter(t *testing.T) {
	_, err := NewParser().ParseReader(strings.NewReader("---\ndocument_type: x\nno end"), "bad.md")
	assert.ErrorContains(t, err, "unclosed frontmatter")
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "first")
	writeFile(t, dir, "b.md", "second")
	writeFile(t, dir, "_notes.txt", "meta file")
	writeFile(t, dir, "scan.pdf", "binary")

	docs, err := NewLoader().LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	names := []string{docs[0].Filename, docs[1].Filename}
	assert.ElementsMatch(t, []string{"a.txt", "b.md"}, names)
}

func TestLoadDirMissing(t *testing.T) {
	docs, err := NewLoader().LoadDir(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestLoadFilesPartialFailure(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.txt", "metformin")
	bad := writeFile(t, dir, "bad.md", "---\nunclosed")
	skipped := writeFile(t, dir, "image.png", "png")

	docs, err := NewLoader().LoadFiles([]string{good, bad, skipped})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.md")
	require.Len(t, docs, 1)
	assert.Equal(t, "metformin", docs[0].Content)
}

func TestLoadFilesMissing(t *testing.T) {
	_, err := NewLoader().LoadFiles([]string{filepath.Join(t.TempDir(), "nope.txt")})
	assert.Error(t, err)
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("report.TXT"))
	assert.True(t, IsSupported("notes.md"))
	assert.False(t, IsSupported("scan.pdf"))
}
