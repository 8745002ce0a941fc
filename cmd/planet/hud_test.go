package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDebugOverlay(t *testing.T) {
	var do DebugOverlay
	assert.Empty(t, do.GetText())

	do.AddLine("FPS: %d", 60)
	do.AddLine("Tier: %s", "high")
	assert.Equal(t, "FPS: 60\nTier: high\n", do.GetText())

	do.Clear()
	assert.Empty(t, do.GetText())
}
