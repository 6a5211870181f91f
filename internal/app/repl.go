package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rl1809/voice-pos/internal/core/domain"
	"github.com/rl1809/voice-pos/internal/core/service"
)

const restoredMessage = "Restored previous cart"

// RunREPL reads one utterance per line from in until EOF, "exit" or "quit",
// and writes the engine's per-clause feedback to out. Confirmation text is
// written by the engine's event sink, not here.
func RunREPL(ctx context.Context, a *App, in io.Reader, out io.Writer) error {
	if a.Restored {
		fmt.Fprintf(out, "%s: %s\n", restoredMessage, service.FormatCart(a.Engine.Cart().Cart))
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			fmt.Fprintln(out, "Bye!")
			return nil
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		Feedback(ctx, out, a.Engine, line)
	}
}

// Feedback applies one utterance and prints what happened to each clause.
func Feedback(ctx context.Context, out io.Writer, engine *service.Engine, utterance string) *domain.Report {
	report, err := engine.Handle(ctx, utterance)
	switch {
	case errors.Is(err, service.ErrParseMiss):
		fmt.Fprintln(out, report.Message)
		return report
	case err != nil:
		if report != nil && report.Message != "" {
			fmt.Fprintln(out, report.Message)
		} else {
			fmt.Fprintf(out, "Error: %v\n", err)
		}
		return report
	}

	for _, o := range report.Outcomes {
		// applied clauses are confirmed by the narrator
		if o.Status != domain.StatusApplied && o.Message != "" {
			fmt.Fprintln(out, o.Message)
		}
	}
	return report
}
