package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iishyfishyy/medsearch/internal/config"
	"github.com/iishyfishyy/medsearch/internal/docstore"
	"github.com/iishyfishyy/medsearch/internal/extract"
	"github.com/iishyfishyy/medsearch/internal/history"
	"github.com/iishyfishyy/medsearch/internal/ingest"
	"github.com/iishyfishyy/medsearch/internal/library"
)

// testEnv points the CLI at a throwaway config directory
type testEnv struct {
	dir    string
	config string
	db     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	for _, key := range []string{"MEDSEARCH_DB_PATH", "MEDSEARCH_STORAGE", "MEDSEARCH_TOP_K", "MEDSEARCH_MAX_FEATURES"} {
		t.Setenv(key, "")
	}

	dir := t.TempDir()
	return &testEnv{
		dir:    dir,
		config: filepath.Join(dir, "config.yaml"),
		db:     filepath.Join(dir, "documents.db"),
	}
}

func (e *testEnv) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", e.config, "--db", e.db}, args...))
	err := root.Execute()
	return out.String(), err
}

func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	require.NoError(t, err)
	return out
}

func TestAddSearchDelete(t *testing.T) {
	env := newTestEnv(t)
	d1 := env.writeFile(t, "d1.txt", "diabetes and blood sugar management")
	d2 := env.writeFile(t, "d2.txt", "cholesterol and heart health")
	d3 := env.writeFile(t, "d3.txt", "prescription for blood pressure medication")

	env.mustRun(t, "add", d1, d2, d3)

	var docs []docstore.Document
	require.NoError(t, json.Unmarshal([]byte(env.mustRun(t, "list", "--output", "json")), &docs))
	require.Len(t, docs, 3)
	assert.Equal(t, "d3.txt", docs[0].Filename)
	assert.Equal(t, extract.TypePrescription, docs[0].DocumentType)

	var results []library.Result
	require.NoError(t, json.Unmarshal([]byte(env.mustRun(t, "search", "diabetes", "blood", "sugar", "--output", "json")), &results))
	require.NotEmpty(t, results)
	assert.Equal(t, "d1.txt", results[0].Filename)
	for _, r := range results {
		assert.Greater(t, r.Similarity, 0.1)
	}

	hist, err := history.LoadFile(filepath.Join(env.dir, history.HistoryFileName))
	require.NoError(t, err)
	require.Len(t, hist.Entries, 1)
	assert.Equal(t, "diabetes blood sugar", hist.Entries[0].Query)
	assert.Equal(t, results[0].ID, hist.Entries[0].ResultIDs[0])

	env.mustRun(t, "delete", "--yes", "1")

	require.NoError(t, json.Unmarshal([]byte(env.mustRun(t, "search", "diabetes", "blood", "sugar", "--output", "json")), &results))
	for _, r := range results {
		assert.NotEqual(t, int64(1), r.ID)
	}

	var stats docstore.Stats
	require.NoError(t, json.Unmarshal([]byte(env.mustRun(t, "stats", "--output", "json")), &stats))
	assert.Equal(t, 2, stats.TotalDocuments)
	assert.Equal(t, 2, stats.RecentDocuments)
}

func TestAddFromStdinWithFlags(t *testing.T) {
	env := newTestEnv(t)

	root := newRootCmd()
	root.SetIn(bytes.NewBufferString("Glucose: 98 mg/dL on 03/14/2024"))
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"--config", env.config, "--db", env.db,
		"add", "--stdin", "--name", "lab.txt", "--type", "Custom", "--meta", "source=clinic"})
	require.NoError(t, root.Execute())

	var doc docstore.Document
	require.NoError(t, json.Unmarshal([]byte(env.mustRun(t, "get", "1", "--output", "json")), &doc))
	assert.Equal(t, "lab.txt", doc.Filename)
	assert.Equal(t, "Custom", doc.DocumentType)
	assert.Equal(t, "clinic", doc.Metadata["source"])
	assert.Contains(t, doc.Metadata, "entities")
	assert.Contains(t, doc.Metadata, "key_findings")
}

func TestCommandErrors(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "get", "42")
	assert.ErrorContains(t, err, "document 42 not found")

	_, err = env.run(t, "get", "abc")
	assert.ErrorContains(t, err, "invalid document id")

	_, err = env.run(t, "delete", "--yes", "42")
	assert.ErrorContains(t, err, "not found")

	_, err = env.run(t, "add")
	assert.Error(t, err)

	_, err = env.run(t, "list", "--output", "xml")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestSearchEmptyLibrary(t *testing.T) {
	env := newTestEnv(t)

	var results []library.Result
	require.NoError(t, json.Unmarshal([]byte(env.mustRun(t, "search", "anything", "--output", "json")), &results))
	assert.Empty(t, results)
}

func TestHistoryCommand(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "search", "cholesterol")

	out := env.mustRun(t, "history")
	assert.Contains(t, out, "cholesterol")
}

func TestDefaultConfigLocation(t *testing.T) {
	newTestEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	execute := func(args ...string) {
		t.Helper()
		root := newRootCmd()
		root.SetOut(&bytes.Buffer{})
		root.SetErr(&bytes.Buffer{})
		root.SetArgs(args)
		require.NoError(t, root.Execute())
	}

	execute("configure")
	exists, err := config.Exists()
	require.NoError(t, err)
	require.True(t, exists)

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, config.ConfigDirName, config.DBFileName), cfg.Storage.Path)

	// A second run updates the file in place
	execute("configure")

	execute("search", "troponin")
	hist, err := history.Load()
	require.NoError(t, err)
	require.Len(t, hist.Entries, 1)
	assert.Equal(t, "troponin", hist.Entries[0].Query)

	path, err := history.GetHistoryPath()
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestPrepareDocument(t *testing.T) {
	t.Run("classifies and extracts", func(t *testing.T) {
		doc := &ingest.Document{Filename: "a.txt", Content: "Prescription: Metformin 500 mg"}
		prepareDocument(doc, addOptions{extract: true, classify: true})

		assert.Equal(t, extract.TypePrescription, doc.DocumentType)
		assert.Contains(t, doc.Metadata, "entities")
		assert.Contains(t, doc.Metadata, "key_findings")
	})

	t.Run("flags win", func(t *testing.T) {
		doc := &ingest.Document{
			Filename:     "a.txt",
			Content:      "Prescription: Metformin 500 mg",
			DocumentType: "From Frontmatter",
			Metadata:     map[string]any{"source": "frontmatter"},
		}
		prepareDocument(doc, addOptions{
			name:     "renamed.txt",
			docType:  "From Flag",
			meta:     map[string]string{"source": "flag"},
			extract:  true,
			classify: true,
		})

		assert.Equal(t, "renamed.txt", doc.Filename)
		assert.Equal(t, "From Flag", doc.DocumentType)
		assert.Equal(t, "flag", doc.Metadata["source"])
	})

	t.Run("frontmatter beats extraction", func(t *testing.T) {
		doc := &ingest.Document{
			Content:  "Metformin 500 mg",
			Metadata: map[string]any{"key_findings": "reviewed"},
		}
		prepareDocument(doc, addOptions{extract: true})

		assert.Equal(t, "reviewed", doc.Metadata["key_findings"])
		assert.Empty(t, doc.DocumentType)
	})

	t.Run("no extraction", func(t *testing.T) {
		doc := &ingest.Document{Content: "Metformin 500 mg"}
		prepareDocument(doc, addOptions{})

		assert.Empty(t, doc.Metadata)
		assert.Empty(t, doc.DocumentType)
	})
}

func TestParseMeta(t *testing.T) {
	meta, err := parseMeta([]string{"source=clinic", "note=a=b", "empty="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"source": "clinic", "note": "a=b", "empty": ""}, meta)

	_, err = parseMeta([]string{"novalue"})
	assert.Error(t, err)

	_, err = parseMeta([]string{"=value"})
	assert.Error(t, err)
}

func TestParseID(t *testing.T) {
	id, err := parseID("7")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	for _, bad := range []string{"0", "-1", "x", ""} {
		_, err := parseID(bad)
		assert.Error(t, err, bad)
	}
}
