package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunVersion(t *testing.T) {
	t.Setenv("PIANTE_CONFIG", t.TempDir()+"/config.yaml")
	require.NoError(t, run(context.Background(), []string{"--version"}))
}

func TestRunUnknownCommand(t *testing.T) {
	t.Setenv("PIANTE_CONFIG", t.TempDir()+"/config.yaml")
	assert.Error(t, run(context.Background(), []string{"transplant"}))
}
