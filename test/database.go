package test

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

// TmpFile returns the path for a throwaway sqlite database. The file
// lives in a per-test temporary directory that the testing framework
// removes on cleanup, so every test gets an isolated database.
func TmpFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), uuid.NewString())
}
