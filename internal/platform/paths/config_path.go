package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

const AppName = "sql-orchestrator"

// ConfigEnv overrides the machine-wide config location.
const ConfigEnv = "SQLORCH_CONFIG"

func ConfigFilePath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(ConfigEnv)); p != "" {
		return p, nil
	}
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func dataDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		programData := os.Getenv("PROGRAMDATA")
		if programData == "" {
			programData = `C:\ProgramData`
		}
		return filepath.Join(programData, AppName), nil
	case "linux", "darwin":
		return filepath.Join("/etc", AppName), nil
	default:
		return "", errors.New("unsupported OS for machine-wide config")
	}
}
