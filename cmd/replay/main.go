package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rl1809/voice-pos/internal/app"
	"github.com/rl1809/voice-pos/internal/common/config"
	"github.com/rl1809/voice-pos/internal/common/logger"
	"github.com/rl1809/voice-pos/internal/core/domain"
)

var replayCmd = &cobra.Command{
	Use:   "replay <script.txt>",
	Short: "Replay a script of utterances and verify the stock invariant after each one",
	Long: `Each non-empty line of the script that does not start with # is one utterance.
By default the run uses a throwaway checkpoint file so the real cart is untouched.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         run,
}

func main() {
	replayCmd.Flags().String("config", "", "Path to a config file")
	replayCmd.Flags().Bool("persist", false, "Use the configured checkpoint backend")
	replayCmd.Flags().Bool("quiet", false, "Do not print confirmations")

	if err := replayCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	if persist, _ := cmd.Flags().GetBool("persist"); !persist {
		dir, err := os.MkdirTemp("", "pos-replay-")
		if err != nil {
			return err
		}
		defer os.RemoveAll(dir)
		cfg.Checkpoint.Backend = "file"
		cfg.Checkpoint.Path = filepath.Join(dir, "cart_cache.json")
	}

	utterances, err := readScript(args[0])
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
		out = io.Discard
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	a, err := app.New(cmd.Context(), cfg, log, app.WithConfirmations(out))
	if err != nil {
		return err
	}
	defer a.Close()

	initial := app.InvariantBaseline(a.Engine.Inventory(), a.Engine.Cart().Cart)
	counts := map[domain.ClauseStatus]int{}
	var violations int
	start := time.Now()

	for i, u := range utterances {
		report := app.Feedback(cmd.Context(), out, a.Engine, u)
		if report != nil {
			for _, o := range report.Outcomes {
				counts[o.Status]++
			}
		}
		if err := app.CheckInvariant(initial, a.Engine.Inventory(), a.Engine.Cart().Cart); err != nil {
			violations++
			fmt.Printf("FAIL: line %d %q: %v\n", i+1, u, err)
		}
	}
	elapsed := time.Since(start)

	fmt.Println("============ REPLAY RESULTS ============")
	fmt.Printf("Utterances:       %d\n", len(utterances))
	for _, s := range []domain.ClauseStatus{
		domain.StatusApplied, domain.StatusClamped, domain.StatusSkipped, domain.StatusNotFound,
		domain.StatusOutOfStock, domain.StatusNoEffect, domain.StatusPersistFailed,
	} {
		fmt.Printf("%-17s %d\n", string(s)+":", counts[s])
	}
	fmt.Printf("Final total:      %.2f\n", a.Engine.Cart().Total)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("========================================")

	if violations > 0 {
		return fmt.Errorf("stock invariant violated %d times", violations)
	}
	fmt.Println("PASS: stock + cart matched initial stock after every utterance")
	return nil
}

func readScript(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}
