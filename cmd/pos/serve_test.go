package main

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServe_RejectsZeroWorkers(t *testing.T) {
	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs([]string{"serve", "--workers", "0", "--config", "does-not-exist.yaml"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()

	assert.ErrorContains(t, err, "--workers must be at least 1")
}
