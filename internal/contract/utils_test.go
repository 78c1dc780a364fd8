package contract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huangsam/hydrocheck/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPlainLabel(t *testing.T) {
	tests := []struct {
		name     string
		status   schema.Status
		flat     bool
		expected string
	}{
		{name: "failed", status: schema.FailedStatus, expected: FailedValue},
		{name: "failed wins over flat", status: schema.FailedStatus, flat: true, expected: FailedValue},
		{name: "flat pass", status: schema.PassedStatus, flat: true, expected: FlatValue},
		{name: "pass", status: schema.PassedStatus, expected: PassedValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetPlainLabel(tt.status, tt.flat))
		})
	}
}

func TestGetColorLabel(t *testing.T) {
	tests := []struct {
		name   string
		status schema.Status
		flat   bool
		label  string
	}{
		{"failed", schema.FailedStatus, false, FailedValue},
		{"flat", schema.PassedStatus, true, FlatValue},
		{"passed", schema.PassedStatus, false, PassedValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GetColorLabel(tt.status, tt.flat)
			// Should contain the plain label
			assert.Contains(t, result, tt.label)
		})
	}
}

func TestSelectOutputFile(t *testing.T) {
	t.Run("empty path returns stdout", func(t *testing.T) {
		file, err := SelectOutputFile("")
		require.NoError(t, err)
		assert.Equal(t, os.Stdout, file)
	})

	t.Run("valid path creates file", func(t *testing.T) {
		tempFile := filepath.Join(t.TempDir(), "test_output.txt")

		file, err := SelectOutputFile(tempFile)
		require.NoError(t, err)
		assert.NotNil(t, file)
		_ = file.Close()

		_, err = os.Stat(tempFile)
		assert.NoError(t, err)
	})
}

func TestDBFilePaths(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)

	cache := GetCacheDBFilePath()
	history := GetHistoryDBFilePath()
	assert.Contains(t, cache, ".hydrocheck_cache.db")
	assert.Contains(t, history, ".hydrocheck_history.db")
	assert.NotEqual(t, cache, history)
	assert.True(t, strings.HasPrefix(cache, homeDir), "path %s should start with home dir %s", cache, homeDir)
}

func TestTruncateName(t *testing.T) {
	assert.Equal(t, "short", TruncateName("short", 10))
	assert.Equal(t, "...t_node_42", TruncateName("very_long_culvert_node_42", 12))
	assert.Equal(t, "abcdef", TruncateName("abcdef", 3))
}

func TestFormatFailTimes(t *testing.T) {
	assert.Equal(t, "-", FormatFailTimes(nil, 3, 5))
	assert.Equal(t, "1.100, 1.200", FormatFailTimes([]float64{1.1, 1.2}, 3, 5))
	assert.Equal(t, "1.1, 1.2, ... +2, 1.5", FormatFailTimes([]float64{1.1, 1.2, 1.3, 1.4, 1.5}, 1, 3))
	assert.Equal(t, "1.1, 1.2, 1.3", FormatFailTimes([]float64{1.1, 1.2, 1.3}, 1, 0))
}

func TestFormatHours(t *testing.T) {
	assert.Equal(t, "1.100", FormatHours(1.1, 3))
	assert.Equal(t, "2.35", FormatHours(2.346, 2))
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"yes", "TRUE", "1"} {
		got, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.True(t, got, s)
	}
	for _, s := range []string{"no", "False", "0"} {
		got, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.False(t, got, s)
	}
	_, err := ParseBoolString("")
	assert.Error(t, err)
}
