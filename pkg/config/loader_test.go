package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvChecks(t *testing.T) {
	old := env
	defer func() { env = old }()

	env = "production"
	assert.True(t, IsProduction())
	assert.False(t, IsLocal())

	env = "local"
	assert.False(t, IsProduction())
	assert.True(t, IsLocal())

	env = ""
	assert.False(t, IsProduction())
	assert.False(t, IsLocal())
}

func TestGetPath_NotFound(t *testing.T) {
	_, err := GetPath("definitely-not-here.yaml", 2)
	assert.Error(t, err)
}
