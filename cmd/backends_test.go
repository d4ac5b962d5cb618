package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-engine/internal/config"
	"github.com/sells-group/lead-engine/internal/model"
)

func TestBuildBackendsBing(t *testing.T) {
	backends, err := buildBackends(config.SearchConfig{Backends: []string{"bing"}})
	require.NoError(t, err)
	require.Len(t, backends, 1)
	assert.Equal(t, model.BackendBing, backends[0].Name())
	backends[0].Close()
}

func TestBuildBackendsUnknown(t *testing.T) {
	_, err := buildBackends(config.SearchConfig{Backends: []string{"bing", "altavista"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "altavista")
}

func TestBuildBackendsEmpty(t *testing.T) {
	_, err := buildBackends(config.SearchConfig{})
	assert.Error(t, err)
}
