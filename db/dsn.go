package db

import (
	"fmt"
	"strings"

	"github.com/finchly/payguard/internal/pathutil"
)

// ResolveSQLiteDSN expands a user-supplied sqlite path and makes sure its
// parent directory exists. ":memory:" passes through untouched.
func ResolveSQLiteDSN(dsn string) (string, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return "", fmt.Errorf("missing sqlite dsn")
	}
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file::memory:") {
		return dsn, nil
	}

	path := pathutil.ExpandHomePath(dsn)
	if err := pathutil.EnsureParentDir(path); err != nil {
		return "", fmt.Errorf("create db dir: %w", err)
	}
	return path, nil
}
