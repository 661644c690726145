package ui

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Aman-CERP/docfinder/internal/async"
)

func TestStage_Names(t *testing.T) {
	tests := []struct {
		stage Stage
		name  string
		icon  string
	}{
		{StageScanning, "Scanning", "SCAN"},
		{StageExtracting, "Extracting", "EXTRACT"},
		{StageEmbedding, "Embedding", "EMBED"},
		{StagePersisting, "Saving", "SAVE"},
		{StageComplete, "Complete", "DONE"},
		{Stage(42), "Unknown", "???"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.stage.String())
			assert.Equal(t, tt.icon, tt.stage.Icon())
		})
	}
}

func TestStageOf(t *testing.T) {
	assert.Equal(t, StageScanning, StageOf(string(async.StageScanning)))
	assert.Equal(t, StageExtracting, StageOf(string(async.StageExtracting)))
	assert.Equal(t, StageEmbedding, StageOf(string(async.StageEmbedding)))
	assert.Equal(t, StagePersisting, StageOf(string(async.StagePersisting)))
	assert.Equal(t, StageComplete, StageOf(string(async.StageIdle)))
}

func TestNewRenderer_PlainForNonTTY(t *testing.T) {
	// Given: output that is not a terminal
	buf := &bytes.Buffer{}

	// When: choosing a renderer
	r := NewRenderer(NewConfig(buf))

	// Then: plain output is used
	_, ok := r.(*PlainRenderer)
	assert.True(t, ok)
}

func TestNewRenderer_ForcePlain(t *testing.T) {
	r := NewRenderer(NewConfig(os.Stdout, WithForcePlain(true)))

	_, ok := r.(*PlainRenderer)
	assert.True(t, ok)
}

func TestNewConfig_Options(t *testing.T) {
	called := false
	cfg := NewConfig(&bytes.Buffer{},
		WithNoColor(true),
		WithFolder("/docs"),
		WithInterrupt(func() { called = true }),
	)

	assert.True(t, cfg.NoColor)
	assert.Equal(t, "/docs", cfg.Folder)
	cfg.OnInterrupt()
	assert.True(t, called)
}

func TestIsTTY(t *testing.T) {
	assert.False(t, IsTTY(&bytes.Buffer{}))
	assert.False(t, IsTTY(nil))

	f, err := os.CreateTemp(t.TempDir(), "out")
	assert.NoError(t, err)
	defer f.Close()
	assert.False(t, IsTTY(f))
}

func TestDetectCI(t *testing.T) {
	t.Setenv("GITHUB_ACTIONS", "true")
	assert.True(t, DetectCI())
}

func TestDetectNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.True(t, DetectNoColor())
}
