// Package ui renders controller and countdown state for the terminal.
// It projects snapshots only; no goal state lives here.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/gitdone-app/gitdone-client/internal/countdown"
	"github.com/gitdone-app/gitdone-client/internal/deadline"
	"github.com/gitdone-app/gitdone-client/internal/models"
	"github.com/gitdone-app/gitdone-client/internal/push"
)

// UI writes colored output to the configured streams.
type UI struct {
	Out    io.Writer
	ErrOut io.Writer
}

// New creates a UI with default stdout/stderr writers.
func New() *UI {
	return &UI{Out: os.Stdout, ErrOut: os.Stderr}
}

var (
	infoPrefix    = color.New(color.FgHiBlue).Sprint("i")
	successPrefix = color.New(color.FgHiGreen).Sprint("✓")
	warningPrefix = color.New(color.FgHiYellow).Sprint("⚠")
	errorPrefix   = color.New(color.FgHiRed).Sprint("✗")
	cyan          = color.New(color.FgHiCyan).SprintFunc()
	green         = color.New(color.FgHiGreen).SprintFunc()
	yellow        = color.New(color.FgHiYellow).SprintFunc()
	red           = color.New(color.FgHiRed).SprintFunc()
)

func (u *UI) Info(format string, a ...any) {
	fmt.Fprintf(u.Out, "%s %s\n", infoPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Success(format string, a ...any) {
	fmt.Fprintf(u.Out, "%s %s\n", successPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Warning(format string, a ...any) {
	fmt.Fprintf(u.ErrOut, "%s %s\n", warningPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Error(format string, a ...any) {
	fmt.Fprintf(u.ErrOut, "%s %s\n", errorPrefix, fmt.Sprintf(format, a...))
}

// StatusColor colors a goal status for table output.
func StatusColor(status string) string {
	switch status {
	case models.StatusActive:
		return green(status)
	case models.StatusCompleted:
		return cyan(status)
	case models.StatusFailed:
		return red(status)
	default:
		return status
	}
}

// CountdownText colors a countdown snapshot by urgency.
func CountdownText(snap countdown.Snapshot) string {
	switch {
	case snap.Terminal:
		return red(snap.Display)
	case snap.Urgent:
		return red(snap.Display)
	case snap.Bucket == countdown.BucketUnderDay:
		return yellow(snap.Display)
	default:
		return snap.Display
	}
}

// DeadlineText returns the user-facing deadline for a goal, rebuilding
// it from the canonical timestamp when the display text is missing.
func DeadlineText(g models.Goal, codec *deadline.Codec) string {
	if g.DeadlineDisplay != "" {
		return g.DeadlineDisplay
	}
	if d, err := codec.Decode(g.Deadline); err == nil {
		return d
	}
	return g.Deadline
}

// Table creates a tablewriter configured with consistent styling.
func (u *UI) Table(headers []string) *tablewriter.Table {
	table := tablewriter.NewTable(u.Out,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines:      tw.LinesNone,
				Separators: tw.SeparatorsNone,
			},
		}),
		tablewriter.WithPadding(tw.Padding{Left: "", Right: "  "}),
	)
	table.Header(headers)
	return table
}

// PushNotifier renders push notifications on the terminal. When Open is
// set, the notification's target URL is followed after display, the
// terminal stand-in for clicking the notification.
type PushNotifier struct {
	UI   *UI
	Open func(url string) error
}

func (p PushNotifier) Show(n push.Notification) error {
	p.UI.Info("%s: %s (%s)", yellow(n.Title), n.Body, n.URL)
	if p.Open != nil {
		return p.Open(n.URL)
	}
	return nil
}
