package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/iishyfishyy/medsearch/internal/docstore"
	"github.com/iishyfishyy/medsearch/internal/extract"
	"github.com/iishyfishyy/medsearch/internal/ingest"
	"github.com/iishyfishyy/medsearch/internal/ui"
)

// addOptions controls how a loaded file becomes a library document
type addOptions struct {
	name     string
	docType  string
	meta     map[string]string
	extract  bool
	classify bool
}

func newAddCmd() *cobra.Command {
	var (
		fromStdin bool
		noExtract bool
		name      string
		docType   string
		metaPairs []string
	)

	cmd := &cobra.Command{
		Use:   "add [files...]",
		Short: "Add documents to the library",
		Long:  "Add .txt and .md files (or directories of them) to the library. Files may start with a YAML frontmatter block setting filename, document_type and metadata.",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !fromStdin {
				return fmt.Errorf("provide at least one file or --stdin")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := parseMeta(metaPairs)
			if err != nil {
				return err
			}

			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			loader := ingest.NewLoaderWithLogger(s.logger)

			var docs []ingest.Document
			if fromStdin {
				stdinName := name
				if stdinName == "" {
					stdinName = "stdin"
				}
				doc, err := loader.LoadReader(cmd.InOrStdin(), stdinName)
				if err != nil {
					return err
				}
				docs = append(docs, *doc)
			}

			var loadErr error
			if len(args) > 0 {
				loaded, err := loader.LoadFiles(args)
				docs = append(docs, loaded...)
				loadErr = err
			}
			if len(docs) == 0 {
				if loadErr != nil {
					return loadErr
				}
				ui.ShowWarning("No supported files found (expected .txt or .md)")
				return nil
			}
			if loadErr != nil {
				ui.ShowWarning(loadErr.Error())
			}

			if name != "" && len(docs) > 1 {
				return fmt.Errorf("--name requires exactly one document, got %d", len(docs))
			}

			opts := addOptions{
				name:     name,
				docType:  docType,
				meta:     meta,
				extract:  !noExtract && s.cfg.Extract.Enabled,
				classify: !noExtract && s.cfg.Extract.ClassifyType,
			}

			ctx := cmd.Context()
			for i := range docs {
				doc := &docs[i]
				prepareDocument(doc, opts)

				if doc.DocumentType == "" && !fromStdin && ui.IsInteractive() {
					picked, err := ui.SelectDocumentType(extract.DocumentTypes, extract.ClassifyDocumentType(doc.Content))
					if err != nil {
						return err
					}
					doc.DocumentType = picked
				}

				id, err := s.library.AddDocument(ctx, doc.Filename, doc.Content, doc.DocumentType, doc.Metadata)
				if err != nil {
					return err
				}

				label := doc.DocumentType
				if label == "" {
					label = docstore.UnknownType
				}
				ui.ShowSuccess(fmt.Sprintf("Added %s as document %d (%s)", doc.Filename, id, label))
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read one document from standard input")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Filename to store (single document only)")
	cmd.Flags().StringVarP(&docType, "type", "t", "", "Document type")
	cmd.Flags().StringArrayVarP(&metaPairs, "meta", "m", nil, "Metadata entry as key=value (repeatable)")
	cmd.Flags().BoolVar(&noExtract, "no-extract", false, "Skip pattern-based entity extraction and type classification")

	return cmd
}

// prepareDocument applies flag overrides and extraction hints to doc.
// Flags win over frontmatter, and frontmatter wins over extracted hints.
func prepareDocument(doc *ingest.Document, opts addOptions) {
	if opts.name != "" {
		doc.Filename = opts.name
	}
	if opts.docType != "" {
		doc.DocumentType = opts.docType
	}
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]any)
	}

	if opts.extract {
		for k, v := range extract.Metadata(doc.Content) {
			if _, ok := doc.Metadata[k]; !ok {
				doc.Metadata[k] = v
			}
		}
	}
	for k, v := range opts.meta {
		doc.Metadata[k] = v
	}

	if doc.DocumentType == "" && opts.classify {
		doc.DocumentType = extract.ClassifyDocumentType(doc.Content)
	}
}

// parseMeta turns key=value flag values into a map
func parseMeta(pairs []string) (map[string]string, error) {
	meta := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --meta %q (expected key=value)", pair)
		}
		meta[key] = value
	}
	return meta, nil
}

func newGetCmd() *cobra.Command {
	var (
		output      string
		copyContent bool
	)

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(output, outputText, outputJSON); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			doc, err := s.library.GetDocument(cmd.Context(), id)
			if errors.Is(err, docstore.ErrNotFound) {
				return fmt.Errorf("document %d not found", id)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if output == outputJSON {
				if err := writeJSON(out, doc); err != nil {
					return err
				}
			} else {
				printDocument(out, doc)
			}

			if copyContent {
				if err := clipboard.WriteAll(doc.Content); err != nil {
					ui.ShowError(fmt.Sprintf("Failed to copy to clipboard: %v", err))
				} else {
					ui.ShowSuccess("Content copied to clipboard!")
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format: text or json")
	cmd.Flags().BoolVarP(&copyContent, "copy", "c", false, "Copy the document content to the clipboard")

	return cmd
}

func printDocument(w io.Writer, doc *docstore.Document) {
	label := color.New(color.FgCyan, color.Bold)

	docType := doc.DocumentType
	if docType == "" {
		docType = docstore.UnknownType
	}

	label.Fprint(w, "ID:       ")
	fmt.Fprintln(w, doc.ID)
	label.Fprint(w, "Filename: ")
	fmt.Fprintln(w, doc.Filename)
	label.Fprint(w, "Type:     ")
	fmt.Fprintln(w, docType)
	label.Fprint(w, "Added:    ")
	fmt.Fprintf(w, "%s (%s)\n", doc.CreatedAt.Local().Format("2006-01-02 15:04"), ui.RelativeTime(doc.CreatedAt))

	if findings, ok := doc.Metadata["key_findings"].([]any); ok && len(findings) > 0 {
		label.Fprintln(w, "Findings:")
		for _, f := range findings {
			fmt.Fprintf(w, "  • %v\n", f)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.TrimRight(doc.Content, "\r\n"))
}

func newListCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all documents, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(output, outputTable, outputJSON); err != nil {
				return err
			}

			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			docs, err := s.library.ListDocuments(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if output == outputJSON {
				return writeJSON(out, docs)
			}

			if len(docs) == 0 {
				ui.ShowInfo("No documents yet. Add one with: medsearch add <file>")
				return nil
			}

			width := previewWidth(60)
			rows := make([][]string, 0, len(docs))
			for _, doc := range docs {
				docType := doc.DocumentType
				if docType == "" {
					docType = docstore.UnknownType
				}
				rows = append(rows, []string{
					strconv.FormatInt(doc.ID, 10),
					doc.Filename,
					docType,
					ui.RelativeTime(doc.CreatedAt),
					ui.Preview(doc.Content, width),
				})
			}

			fmt.Fprintln(out, ui.RenderTable([]string{"ID", "Filename", "Type", "Added", "Preview"}, rows))
			fmt.Fprintf(out, "%d documents\n", len(docs))

			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format: table or json")

	return cmd
}

func newDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()

			if !yes {
				if !ui.IsInteractive() {
					return fmt.Errorf("refusing to delete without confirmation; pass --yes")
				}

				doc, err := s.library.GetDocument(ctx, id)
				if errors.Is(err, docstore.ErrNotFound) {
					return fmt.Errorf("document %d not found", id)
				}
				if err != nil {
					return err
				}

				confirmed, err := ui.Confirm(fmt.Sprintf("Delete document %d (%s)?", id, doc.Filename), false)
				if err != nil {
					return err
				}
				if !confirmed {
					ui.ShowInfo("Cancelled")
					return nil
				}
			}

			deleted, err := s.library.DeleteDocument(ctx, id)
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("document %d not found", id)
			}

			ui.ShowSuccess(fmt.Sprintf("Deleted document %d", id))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Delete without asking for confirmation")

	return cmd
}

// previewWidth returns how many runes of content fit next to fixed columns
// taking roughly reserved cells
func previewWidth(reserved int) int {
	width := ui.TerminalWidth() - reserved
	if width < 20 {
		return 20
	}
	return width
}
