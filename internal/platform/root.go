package platform

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/aretw0/murmur/pkg/adapters/fs"
)

// ConfigFileName is the CLI configuration file kept at the data root.
const ConfigFileName = "murmur.yaml"

// ErrRootNotFound is returned by FindRoot when no data root is found.
var ErrRootNotFound = errors.New("data root not found")

// FindRoot walks upwards from startDir looking for a data root, marked by a
// .murmur directory or a murmur.yaml file. It returns the absolute path of
// the first match.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		if hasFile(dir, fs.DefaultSystemDir) || hasFile(dir, ConfigFileName) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", ErrRootNotFound
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
