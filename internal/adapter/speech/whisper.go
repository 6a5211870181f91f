// Package speech turns recorded audio into utterance text with the
// whisper.cpp command line tool.
package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"unicode"

	"github.com/rl1809/voice-pos/internal/common/logger"
)

var ErrNoSpeech = errors.New("no speech recognised")

// WhisperCLI runs `whisper-cli -m <model> -f <audio>` per file.
type WhisperCLI struct {
	binary    string
	modelPath string
	logger    logger.Logger
}

func NewWhisperCLI(binary, modelPath string, log logger.Logger) *WhisperCLI {
	if binary == "" {
		binary = "whisper-cli"
	}
	return &WhisperCLI{
		binary:    binary,
		modelPath: modelPath,
		logger:    log.With(map[string]interface{}{"component": "whisper"}),
	}
}

func (w *WhisperCLI) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return "", fmt.Errorf("audio file: %w", err)
	}

	args := []string{"-f", audioPath}
	if w.modelPath != "" {
		args = append([]string{"-m", w.modelPath}, args...)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, w.binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s failed: %w: %s", w.binary, err, strings.TrimSpace(stderr.String()))
	}

	text := ParseOutput(stdout.String())
	w.logger.Debug("transcribed", map[string]interface{}{"file": audioPath, "text": text})
	if text == "" {
		return "", ErrNoSpeech
	}
	return text, nil
}

// ParseOutput extracts the utterance from whisper output: the last non-empty
// line, minus any "[00:00:00.000 --> 00:00:02.000]" timestamp prefix.
func ParseOutput(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	if i := strings.LastIndex(last, "]"); i >= 0 {
		last = last[i+1:]
	}
	return CleanText(last)
}

// CleanText strips ASCII punctuation, lowercases and trims.
func CleanText(s string) string {
	s = strings.Map(func(r rune) rune {
		if r <= unicode.MaxASCII && (unicode.IsPunct(r) || unicode.IsSymbol(r)) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(strings.ToLower(s))
}
