package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/leapstack-labs/analytics-agent/internal/schema"
	"github.com/leapstack-labs/analytics-agent/pkg/core"
)

// DataDir is the directory scaffolded for store files.
const DataDir = "data"

// Scaffold creates the directory layout of a new project: dir itself,
// dir/data and an empty schema.json. dir must not exist.
// Writing config.json is left to the caller.
func Scaffold(dir string, now time.Time) (*core.ProjectSchema, error) {
	if _, err := os.Stat(dir); err == nil {
		return nil, fmt.Errorf("directory %s already exists", dir)
	}
	if err := os.MkdirAll(filepath.Join(dir, DataDir), 0o750); err != nil {
		return nil, &core.IOError{Path: dir, Err: err}
	}
	return schema.ForProject(dir, nil).Init(now)
}
