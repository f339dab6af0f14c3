package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"timedtext/internal/align"
	"timedtext/internal/export"
	"timedtext/internal/faults"
	"timedtext/internal/fileutil"
	"timedtext/internal/logging"
	"timedtext/internal/session"
	"timedtext/internal/textutil"
)

type alignResult struct {
	ID          string        `json:"id"`
	Matched     int           `json:"matched"`
	Substituted int           `json:"substituted"`
	Inserted    int           `json:"inserted"`
	Deleted     int           `json:"deleted"`
	BestEffort  bool          `json:"best_effort"`
	State       session.State `json:"state"`
}

func reportAlignment(ctx *commandContext, cmd *cobra.Command, sess *session.Session, res align.Result) error {
	out := alignResult{
		ID:          sess.ID(),
		Matched:     res.Matched,
		Substituted: res.Substituted,
		Inserted:    res.Inserted,
		Deleted:     res.Deleted,
		BestEffort:  res.BestEffort,
		State:       sess.State(),
	}
	if ctx.jsonOutput() {
		return writeJSON(cmd, out)
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Aligned: %d matched, %d substituted, %d inserted, %d deleted\n",
		out.Matched, out.Substituted, out.Inserted, out.Deleted)
	if out.BestEffort {
		fmt.Fprintln(w, "Texts differ substantially; timings are best effort")
	}
	return nil
}

func newRealignCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "realign <id>",
		Short: "Re-time edited paragraphs against the original words",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, args[0], true, func(run docRun) error {
				res, err := run.session.Realign(run.ctx)
				if err != nil {
					return err
				}
				return reportAlignment(ctx, cmd, run.session, res)
			})
		},
	}
}

func newReplaceCommand(ctx *commandContext) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "replace <id> [text]",
		Short: "Replace the whole document text and realign it",
		Long:  "Replace the whole document text and realign it against the original words.\nThe text comes from the argument, --file, or stdin when --file is -.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := replacementText(cmd, args, file)
			if err != nil {
				return err
			}
			return ctx.withSession(cmd, args[0], true, func(run docRun) error {
				res, err := run.session.ReplaceText(run.ctx, text)
				if err != nil {
					return err
				}
				return reportAlignment(ctx, cmd, run.session, res)
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the replacement text from a file (- for stdin)")
	return cmd
}

func replacementText(cmd *cobra.Command, args []string, file string) (string, error) {
	switch {
	case len(args) == 2 && file != "":
		return "", faults.Wrap(faults.ErrValidation, "cli", "replace", "pass text or --file, not both", nil)
	case len(args) == 2:
		return args[1], nil
	case file == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", file, err)
		}
		return string(data), nil
	default:
		return "", faults.Wrap(faults.ErrValidation, "cli", "replace", "replacement text is required", nil)
	}
}

type exportResult struct {
	ID     string `json:"id"`
	Format string `json:"format"`
	Path   string `json:"path"`
	Bytes  int    `json:"bytes"`
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var (
		format string
		output string
		opts   export.Options
	)

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a document",
		Long:  "Export a document. Formats: " + strings.Join(export.Names(), ", ") + ".\nModified documents are realigned first when the format needs timings.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withSession(cmd, args[0], true, func(run docRun) error {
				f, err := run.session.ParseFormat(format, opts)
				if err != nil {
					return err
				}
				out, err := run.session.Export(run.ctx, f)
				if err != nil {
					return err
				}
				if output == "-" {
					_, err := cmd.OutOrStdout().Write(out.Data)
					return err
				}
				target := output
				if target == "" {
					title := run.session.Snapshot().Title
					if title == "" {
						title = cfg.Export.DefaultTitle
					}
					name := textutil.SanitizeFileName(title)
					if name == "" {
						name = "transcript"
					}
					target = filepath.Join(cfg.Paths.ExportDir, name+out.Extension)
				}
				if err := fileutil.WriteFileAtomic(target, out.Data, 0o644); err != nil {
					return fmt.Errorf("write export: %w", err)
				}
				logging.WithContext(run.ctx, ctx.logger).Info("export written",
					logging.String("format", out.Format),
					logging.String("path", target),
					logging.Int("bytes", len(out.Data)))
				res := exportResult{ID: run.session.ID(), Format: out.Format, Path: target, Bytes: len(out.Data)}
				if ctx.jsonOutput() {
					return writeJSON(cmd, res)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s export to %s\n", res.Format, res.Path)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Export format")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (- for stdout; default under paths.export_dir)")
	cmd.Flags().BoolVar(&opts.Speakers, "speakers", false, "Include speaker names")
	cmd.Flags().BoolVar(&opts.Timecodes, "timecodes", false, "Include paragraph timecodes")
	cmd.Flags().BoolVar(&opts.InlineTimecodes, "inline-timecodes", false, "Put timecodes inside paragraph text")
	cmd.Flags().BoolVar(&opts.HideTitle, "hide-title", false, "Omit the title from rich documents")
	cmd.Flags().BoolVar(&opts.AtlasFormat, "atlas", false, "Put the header on its own line in text exports")
	cmd.Flags().StringVar(&opts.Title, "title", "", "Title for rich documents")
	return cmd
}
