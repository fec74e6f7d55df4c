package result

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

const resultsFile = "results.json"

// CreateRunDir makes runs/<timestamp> under baseDir and points baseDir/latest
// at it. Runs started in the same second get a -2, -3, ... suffix. The link
// is relative so it survives a bind mount.
func CreateRunDir(baseDir string) (string, error) {
	runsDir := filepath.Join(baseDir, "runs")
	if err := os.MkdirAll(runsDir, 0o755); err != nil {
		return "", fmt.Errorf("creating runs dir: %w", err)
	}
	stamp := time.Now().UTC().Format("2006-01-02T15-04-05")

	var rel string
	for n := 1; ; n++ {
		name := stamp
		if n > 1 {
			name = fmt.Sprintf("%s-%d", stamp, n)
		}
		err := os.Mkdir(filepath.Join(runsDir, name), 0o755)
		if err == nil {
			rel = filepath.Join("runs", name)
			break
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("creating run dir: %w", err)
		}
	}
	runDir, err := filepath.Abs(filepath.Join(baseDir, rel))
	if err != nil {
		return "", fmt.Errorf("resolving run dir: %w", err)
	}
	latest := filepath.Join(baseDir, "latest")
	os.Remove(latest)
	if err := os.Symlink(rel, latest); err != nil {
		return "", fmt.Errorf("creating latest symlink: %w", err)
	}
	return runDir, nil
}

// ResultsPath is where a run directory keeps its collection.
func ResultsPath(runDir string) string {
	return filepath.Join(runDir, resultsFile)
}

func WriteCollection(runDir string, c Collection) error {
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return fmt.Errorf("creating run dir: %w", err)
	}
	if c == nil {
		c = Collection{}
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling results: %w", err)
	}
	return os.WriteFile(ResultsPath(runDir), data, 0o644)
}

// ReadCollection loads results.json from a run directory or a direct file path.
func ReadCollection(path string) (Collection, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = ResultsPath(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading results: %w", err)
	}
	var c Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing results: %w", err)
	}
	return c, nil
}
