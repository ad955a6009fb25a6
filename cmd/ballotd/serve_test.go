package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icook/tiny-ballot/config"
)

func TestOpenDriver(t *testing.T) {
	d, err := openDriver(config.StorageConfig{Scheme: config.StorageMemory})
	require.NoError(t, err)
	require.NoError(t, d.Close())

	d, err = openDriver(config.StorageConfig{Scheme: config.StorageFile, Path: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, d.Close())

	_, err = openDriver(config.StorageConfig{Scheme: "redis"})
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	log, err := newLogger(config.LogConfig{Level: "debug", Encoding: "json"})
	require.NoError(t, err)
	assert.NotNil(t, log)

	_, err = newLogger(config.LogConfig{Level: "loud", Encoding: "json"})
	assert.Error(t, err)
}
