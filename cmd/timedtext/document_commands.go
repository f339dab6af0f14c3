package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"timedtext/internal/session"
	"timedtext/internal/store"
	"timedtext/internal/textutil"
	"timedtext/internal/timecode"
	"timedtext/internal/transcript"
)

type importResult struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Paragraphs int    `json:"paragraphs"`
	Words      int    `json:"words"`
}

func newImportCommand(ctx *commandContext) *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a flat or block transcript (JSON or YAML)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			doc, err := transcript.LoadFile(path, cfg.Editor.UnknownSpeaker)
			if err != nil {
				return err
			}
			if t := strings.TrimSpace(title); t != "" {
				doc.Title = t
			}
			return ctx.withStore(func(st *store.Store) error {
				id, err := st.CreateDocument(ctx.requestContext(cmd), doc, path)
				if err != nil {
					return err
				}
				res := importResult{ID: id, Title: doc.Title, Paragraphs: len(doc.Paragraphs), Words: len(doc.Words())}
				if ctx.jsonOutput() {
					return writeJSON(cmd, res)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %s (%d paragraphs, %d words) as %s\n", res.Title, res.Paragraphs, res.Words, res.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Document title (defaults to the file name)")
	return cmd
}

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				docs, err := st.ListDocuments(ctx.requestContext(cmd))
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					if docs == nil {
						docs = []store.Summary{}
					}
					return writeJSON(cmd, docs)
				}
				if len(docs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No documents")
					return nil
				}
				rows := make([][]string, 0, len(docs))
				for _, d := range docs {
					rows = append(rows, []string{
						shortID(d.ID),
						d.Title,
						fmt.Sprintf("%d/%d", d.Head, d.Operations),
						textutil.Ternary(d.Modified, "yes", "no"),
						d.UpdatedAt.Local().Format(time.DateTime),
					})
				}
				printRows(cmd, []string{"ID", "Title", "Edits", "Modified", "Updated"}, rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft})
				return nil
			})
		},
	}
}

type showResult struct {
	ID     string             `json:"id"`
	Title  string             `json:"title"`
	State  session.State      `json:"state"`
	Blocks []transcript.Block `json:"blocks"`
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a document's paragraphs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, args[0], false, func(run docRun) error {
				doc := run.session.Snapshot()
				state := run.session.State()
				if ctx.jsonOutput() {
					return writeJSON(cmd, showResult{
						ID:     run.session.ID(),
						Title:  doc.Title,
						State:  state,
						Blocks: transcript.ToBlocks(doc),
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s (%s)\n", doc.Title, run.session.ID())
				fmt.Fprintf(out, "Edits: %d/%d  Modified: %s\n", state.Head, state.Length, textutil.Ternary(state.Modified, "yes", "no"))
				rows := make([][]string, 0, len(doc.Paragraphs))
				for i, p := range doc.Paragraphs {
					rows = append(rows, []string{strconv.Itoa(i), p.Speaker, timecode.Short(p.Start), p.Text})
				}
				printRows(cmd, []string{"#", "Speaker", "Start", "Text"}, rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft})
				return nil
			})
		},
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
