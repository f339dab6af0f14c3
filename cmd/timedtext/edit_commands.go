package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"timedtext/internal/faults"
	"timedtext/internal/session"
	"timedtext/internal/textutil"
	"timedtext/internal/transcript"
)

type editResult struct {
	ID     string            `json:"id"`
	Cursor *transcript.Point `json:"cursor,omitempty"`
	State  session.State     `json:"state"`
}

func newEditCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newSplitCommand(ctx),
		newMergeCommand(ctx),
		newSetTextCommand(ctx),
		newInsertCommand(ctx),
		newSetSpeakerCommand(ctx),
		newUndoCommand(ctx),
		newRedoCommand(ctx),
	}
}

// runEdit restores the session under the document lock, applies edit and
// reports the resulting cursor and state.
func runEdit(ctx *commandContext, cmd *cobra.Command, ref string, edit func(docRun) (*transcript.Point, error)) error {
	return ctx.withSession(cmd, ref, true, func(run docRun) error {
		cursor, err := edit(run)
		if err != nil {
			return err
		}
		res := editResult{ID: run.session.ID(), Cursor: cursor, State: run.session.State()}
		if ctx.jsonOutput() {
			return writeJSON(cmd, res)
		}
		out := cmd.OutOrStdout()
		if cursor != nil {
			fmt.Fprintf(out, "Cursor at paragraph %d, offset %d\n", cursor.Paragraph, cursor.Offset)
		}
		fmt.Fprintf(out, "Edits: %d/%d\n", res.State.Head, res.State.Length)
		return nil
	})
}

func parseIndex(name, value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		return 0, faults.Wrap(faults.ErrValidation, "cli", "parse", fmt.Sprintf("%s must be a non-negative integer, got %q", name, value), nil)
	}
	return n, nil
}

func parsePoint(paragraph, offset string) (transcript.Point, error) {
	p, err := parseIndex("paragraph", paragraph)
	if err != nil {
		return transcript.Point{}, err
	}
	o, err := parseIndex("offset", offset)
	if err != nil {
		return transcript.Point{}, err
	}
	return transcript.Point{Paragraph: p, Offset: o}, nil
}

func newSplitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "split <id> <paragraph> <offset>",
		Short: "Split a paragraph at a word boundary",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := parsePoint(args[1], args[2])
			if err != nil {
				return err
			}
			return runEdit(ctx, cmd, args[0], func(run docRun) (*transcript.Point, error) {
				cursor, err := run.session.Split(run.ctx, transcript.Caret(at.Paragraph, at.Offset))
				return &cursor, err
			})
		},
	}
}

func newMergeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "merge <id> <paragraph> [offset]",
		Short: "Backspace at an offset; at offset 0 merge into the previous paragraph",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			offset := "0"
			if len(args) == 3 {
				offset = args[2]
			}
			at, err := parsePoint(args[1], offset)
			if err != nil {
				return err
			}
			return runEdit(ctx, cmd, args[0], func(run docRun) (*transcript.Point, error) {
				cursor, err := run.session.Merge(run.ctx, at.Paragraph, at.Offset)
				return &cursor, err
			})
		},
	}
}

func newSetTextCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set-text <id> <paragraph> <text>",
		Short: "Replace a paragraph's text",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseIndex("paragraph", args[1])
			if err != nil {
				return err
			}
			return runEdit(ctx, cmd, args[0], func(run docRun) (*transcript.Point, error) {
				return nil, run.session.SetText(run.ctx, p, args[2])
			})
		},
	}
}

func newInsertCommand(ctx *commandContext) *cobra.Command {
	var inaudible, music bool

	cmd := &cobra.Command{
		Use:   "insert <id> <paragraph> <offset> [text]",
		Short: "Insert text or a marker at an offset",
		Args:  cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := parsePoint(args[1], args[2])
			if err != nil {
				return err
			}
			var text string
			switch {
			case inaudible && music:
				return faults.Wrap(faults.ErrValidation, "cli", "insert", "--inaudible and --music are exclusive", nil)
			case inaudible:
				text = transcript.Inaudible + " "
			case music:
				text = transcript.Music + " "
			case len(args) == 4:
				text = args[3]
			default:
				return faults.Wrap(faults.ErrValidation, "cli", "insert", "text or a marker flag is required", nil)
			}
			return runEdit(ctx, cmd, args[0], func(run docRun) (*transcript.Point, error) {
				cursor, err := run.session.InsertText(run.ctx, at, text)
				return &cursor, err
			})
		},
	}
	cmd.Flags().BoolVar(&inaudible, "inaudible", false, "Insert the "+transcript.Inaudible+" marker before the word at offset")
	cmd.Flags().BoolVar(&music, "music", false, "Insert the "+transcript.Music+" marker before the word at offset")
	return cmd
}

func newSetSpeakerCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set-speaker <id> <paragraph> <speaker>",
		Short: "Relabel a paragraph's speaker",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseIndex("paragraph", args[1])
			if err != nil {
				return err
			}
			return runEdit(ctx, cmd, args[0], func(run docRun) (*transcript.Point, error) {
				return nil, run.session.SetSpeaker(run.ctx, p, args[2])
			})
		},
	}
}

func newUndoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "undo <id>",
		Short: "Undo the last edit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(ctx, cmd, args[0], func(run docRun) (*transcript.Point, error) {
				return nil, run.session.Undo(run.ctx)
			})
		},
	}
}

func newRedoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "redo <id>",
		Short: "Redo the last undone edit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(ctx, cmd, args[0], func(run docRun) (*transcript.Point, error) {
				return nil, run.session.Redo(run.ctx)
			})
		},
	}
}

type historyEntry struct {
	Position int       `json:"position"`
	Kind     string    `json:"kind"`
	Summary  string    `json:"summary"`
	At       time.Time `json:"at"`
	Applied  bool      `json:"applied"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "history <id>",
		Short: "Show the edit log; entries after the head are undone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, args[0], false, func(run docRun) error {
				ops, head := run.session.History()
				entries := make([]historyEntry, len(ops))
				for i, op := range ops {
					entries[i] = historyEntry{
						Position: i + 1,
						Kind:     string(op.Kind),
						Summary:  op.Summary(),
						At:       op.At,
						Applied:  i < head,
					}
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, entries)
				}
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No edits")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					marker := ""
					if e.Position == head {
						marker = "*"
					}
					rows = append(rows, []string{
						marker,
						strconv.Itoa(e.Position),
						e.Summary,
						e.At.Local().Format(time.DateTime),
						textutil.Ternary(e.Applied, "applied", "undone"),
					})
				}
				printRows(cmd, []string{"", "#", "Edit", "At", "State"}, rows,
					[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft})
				return nil
			})
		},
	}
}
