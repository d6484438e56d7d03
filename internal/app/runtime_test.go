package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInTestModeTracksEnvironment(t *testing.T) {
	t.Setenv(testModeEnv, "1")
	RefreshTestMode()
	require.True(t, InTestMode())

	t.Setenv(testModeEnv, "")
	RefreshTestMode()
	require.False(t, InTestMode())

	// InTestMode alone serves the cached value; a fresh read needs an
	// explicit refresh.
	t.Setenv(testModeEnv, "1")
	require.False(t, InTestMode())
	RefreshTestMode()
	require.True(t, InTestMode())

	t.Setenv(testModeEnv, "")
	RefreshTestMode()
}
