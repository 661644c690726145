package configs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/docfinder/internal/config"
)

func TestTemplates_AreValidConfig(t *testing.T) {
	tests := []struct {
		name     string
		template string
	}{
		{"folder", FolderConfigTemplate},
		{"user", UserConfigTemplate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotEmpty(t, tt.template)

			cfg := config.NewConfig()
			require.NoError(t, yaml.Unmarshal([]byte(tt.template), cfg))

			assert.NoError(t, cfg.Validate())
		})
	}
}

func TestFolderTemplate_MatchesDefaults(t *testing.T) {
	var cfg config.Config
	require.NoError(t, yaml.Unmarshal([]byte(FolderConfigTemplate), &cfg))

	def := config.NewConfig()
	assert.Equal(t, def.Search.TopK, cfg.Search.TopK)
	assert.Equal(t, def.Search.Granularity, cfg.Search.Granularity)
	assert.Equal(t, def.Index.ChunkMaxLength, cfg.Index.ChunkMaxLength)
	assert.Equal(t, def.Watch.Debounce, cfg.Watch.Debounce)
}
