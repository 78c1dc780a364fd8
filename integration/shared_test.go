//go:build basic || database

package integration

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	// sharedHydrocheckPath holds the path to a shared hydrocheck binary built once for all tests.
	sharedHydrocheckPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	// Run all tests
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getHydrocheckBinary returns the path to the hydrocheck binary, building it once if needed.
func getHydrocheckBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		// Create a temp directory for the binary
		var err error
		tempDir, err = os.MkdirTemp("", "hydrocheck-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		hydrocheckPath := filepath.Join(tempDir, "hydrocheck")
		buildCmd := exec.Command("go", "build", "-o", hydrocheckPath, ".")
		buildCmd.Dir = ".." // Build from parent directory (project root)
		err = buildCmd.Run()
		if err != nil {
			panic(fmt.Sprintf("failed to build hydrocheck: %v", err))
		}

		sharedHydrocheckPath = hydrocheckPath
	})

	return sharedHydrocheckPath
}

// writeResultsFixture writes a 2h export at 0.1h spacing.
// RIV_01 stage spikes at 1.0h, RIV_02 is a gentle ramp and POND is flat.
func writeResultsFixture(t *testing.T) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("time,RIV_01.stage,RIV_01.flow,RIV_02.stage,RIV_02.flow,POND.stage,POND.flow\n")
	for i := range 21 {
		spike := 0.0
		if i == 10 {
			spike = 10
		}
		fmt.Fprintf(&b, "%.1f,%g,1,%g,%g,4,0\n", float64(i)/10, spike, 2+0.01*float64(i), 0.5*float64(i))
	}
	path := filepath.Join(t.TempDir(), "results.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}
