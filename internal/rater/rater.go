// Package rater runs an interactive terminal session for assigning
// categorical evaluations to grouped results, as an alternative to rating
// through the web viewer.
package rater

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/visionrag/ragview/internal/models"
	"github.com/visionrag/ragview/internal/scorestore"
)

// choices beyond the four categories.
const (
	choiceSkip = "skip"
	choiceQuit = "quit"
)

// errQuit stops the session early without failing it.
var errQuit = errors.New("rater: session ended")

// Session iterates grouped units and collects ratings into the store.
type Session struct {
	in    io.Reader
	out   io.Writer
	store *scorestore.Store
}

// NewSession creates a rating session reading selections from in and
// writing prompts to out.
func NewSession(in io.Reader, out io.Writer, store *scorestore.Store) *Session {
	return &Session{in: in, out: out, store: store}
}

// Run walks every present member of every unit, prompting for a category.
// Re-selecting a member's current category toggles it off, same as the web
// viewer. Quitting ends the session without error; ratings already made
// are persisted as they happen.
func (s *Session) Run(units []*models.GroupedUnit) error {
	total := len(units)
	for i, unit := range units {
		for _, mode := range []models.ContextMode{models.ModeWith, models.ModeWithout} {
			rec := unit.Member(mode)
			if rec == nil {
				continue
			}
			if err := s.rateOne(unit, rec, mode, i+1, total); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				return err
			}
		}
	}
	return nil
}

func (s *Session) rateOne(unit *models.GroupedUnit, rec *models.RawRecord, mode models.ContextMode, pos, total int) error {
	fmt.Fprintf(s.out, "\n[%d/%d] item %s · %s · %s context\n", pos, total, unit.ItemID, unit.ModelName, mode)
	fmt.Fprintf(s.out, "Q: %s\n", unit.QuestionText)
	fmt.Fprintf(s.out, "Expected: %s\n", unit.ExpectedAnswer)
	if rec.Failed() {
		fmt.Fprintf(s.out, "Pipeline error: %s\n", *rec.Error)
	}
	fmt.Fprintf(s.out, "Response: %s\n", truncate(rec.Response(), 400))

	title := "Rate this response"
	if current, ok := s.store.Get(unit, mode); ok {
		title = fmt.Sprintf("Rate this response (current: %s, reselect to clear)", current)
	}

	var choice string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(title).
				Options(categoryOptions()...).
				Value(&choice),
		),
	).
		WithInput(s.in).
		WithOutput(s.out)

	// Use accessible mode for non-TTY input (e.g., tests, piped input).
	if f, ok := s.in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return fmt.Errorf("rater: prompt failed: %w", err)
	}

	switch choice {
	case choiceSkip:
		return nil
	case choiceQuit:
		return errQuit
	}

	removed, err := s.store.Set(unit, mode, models.Category(choice))
	if err != nil {
		return err
	}
	if removed {
		fmt.Fprintln(s.out, "rating cleared")
	}
	return nil
}

func categoryOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(models.Categories)+2)
	for _, c := range models.Categories {
		opts = append(opts, huh.NewOption(
			fmt.Sprintf("%s (%d)", c, c.Points()), string(c)))
	}
	opts = append(opts,
		huh.NewOption("skip", choiceSkip),
		huh.NewOption("quit", choiceQuit),
	)
	return opts
}

func truncate(s string, max int) string {
	return runewidth.Truncate(strings.TrimSpace(s), max, "…")
}
