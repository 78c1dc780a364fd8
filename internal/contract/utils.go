package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/hydrocheck/schema"
)

// Verdict label constants.
const (
	FailedValue = "Failed" // Node flagged as unstable
	FlatValue   = "Flat"   // Node passed but never moved
	PassedValue = "Passed" // Node passed
)

// Color variables for console output.
var (
	FailedColor = color.New(color.FgRed, color.Bold) // FailedColor represents standard danger.
	FlatColor   = color.New(color.FgYellow)          // FlatColor flags a series worth a second look.
	PassedColor = color.New(color.FgCyan)            // PassedColor represents informational / low-priority signal.
)

// GetPlainLabel returns a plain text label for a node verdict. This is the
// core logic used for JSON and table printing.
func GetPlainLabel(status schema.Status, flat bool) string {
	switch {
	case status == schema.FailedStatus:
		return FailedValue
	case flat:
		return FlatValue
	default:
		return PassedValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
// It uses GetPlainLabel to determine the string, and then applies the appropriate color.
func GetColorLabel(status schema.Status, flat bool) string {
	text := GetPlainLabel(status, flat)

	switch text {
	case FailedValue:
		return FailedColor.Sprint(text)
	case FlatValue:
		return FlatColor.Sprint(text)
	default:
		return PassedColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path selects os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for the series cache.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".hydrocheck_cache.db"
	}
	return filepath.Join(homeDir, ".hydrocheck_cache.db")
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for run history.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".hydrocheck_history.db"
	}
	return filepath.Join(homeDir, ".hydrocheck_history.db")
}

// TruncateName truncates a node name to a maximum width with ellipsis prefix.
// Requires maxWidth > 3 so there is room for the prefix and at least one character.
func TruncateName(name string, maxWidth int) string {
	runes := []rune(name)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return name
}

// FormatHours renders a simulation time with the configured number of decimals.
func FormatHours(hours float64, precision int) string {
	return strconv.FormatFloat(hours, 'f', precision, 64)
}

// FormatFailTimes joins fail times for a single table cell, eliding the middle of long lists.
func FormatFailTimes(times []float64, precision, maxShown int) string {
	if len(times) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(times))
	if maxShown <= 0 || len(times) <= maxShown {
		for _, t := range times {
			parts = append(parts, FormatHours(t, precision))
		}
		return strings.Join(parts, ", ")
	}
	for _, t := range times[:maxShown-1] {
		parts = append(parts, FormatHours(t, precision))
	}
	parts = append(parts, fmt.Sprintf("... +%d", len(times)-maxShown), FormatHours(times[len(times)-1], precision))
	return strings.Join(parts, ", ")
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
