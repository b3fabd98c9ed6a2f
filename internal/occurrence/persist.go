package occurrence

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/false-systems/nopea/internal/nlog"
)

const subsystem = "occurrence"

// stateDir is the directory name nopea persists occurrence artifacts
// under, relative to the process's working directory.
const stateDir = ".nopea"

// Persist writes artifact to both the cold path ({cwd}/.nopea/
// occurrence.json, pretty JSON, overwritten every deploy) and the warm
// path ({cwd}/.nopea/occurrences/{id}.etf, one binary artifact per
// deploy). Persistence failures are logged and never propagated: an
// occurrence write never fails the deploy it describes.
func Persist(cwd string, artifact *Artifact) {
	dir := filepath.Join(cwd, stateDir)
	if err := os.MkdirAll(filepath.Join(dir, "occurrences"), 0o755); err != nil {
		nlog.Error(subsystem, err, "creating %s", dir)
		return
	}

	if err := persistCold(dir, artifact); err != nil {
		nlog.Error(subsystem, err, "persisting cold occurrence artifact")
	}
	if err := persistWarm(dir, artifact); err != nil {
		nlog.Error(subsystem, err, "persisting warm occurrence artifact %s", artifact.ID)
	}
}

func persistCold(dir string, artifact *Artifact) error {
	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling occurrence: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "occurrence.json"), data, 0o644)
}

func persistWarm(dir string, artifact *Artifact) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(artifact); err != nil {
		return fmt.Errorf("encoding occurrence: %w", err)
	}
	path := filepath.Join(dir, "occurrences", artifact.ID+".etf")
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
