package media

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const dirPermissions = 0o755

// illegalTitleChars are stripped from source titles before they become part
// of a filesystem path.
const illegalTitleChars = `\/:*?"<>|`

// SanitizeTitle removes characters that are illegal in filesystem paths.
// Sanitizing an already-sanitized title is a no-op.
func SanitizeTitle(title string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(illegalTitleChars, r) {
			return -1
		}
		return r
	}, title)
}

// MoveToDir moves input into dir (creating it if needed) and returns the new
// path. A plain rename is attempted first; a copy-and-remove fallback covers
// temp files that live on a different filesystem.
func MoveToDir(input, dir string) (string, error) {
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return "", fmt.Errorf("create dir %s: %w", dir, err)
	}
	dest := filepath.Join(dir, filepath.Base(input))
	if err := os.Rename(input, dest); err != nil {
		if err := copyFile(input, dest); err != nil {
			return "", fmt.Errorf("move %s: %w", input, err)
		}
		os.Remove(input)
	}
	return dest, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Delete removes the file or directory at path. It is idempotent: a path
// that is already gone is a no-op, and permission errors are reported to the
// logger rather than returned, since cleanup must never fail the caller.
func Delete(path string, log *slog.Logger) {
	if path == "" {
		return
	}
	info, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("cleanup stat failed", "path", path, "error", err)
		}
		return
	}
	if info.IsDir() {
		err = os.RemoveAll(path)
	} else {
		err = os.Remove(path)
	}
	if err != nil {
		log.Warn("cleanup failed", "path", path, "error", err)
		return
	}
	log.Debug("deleted download artifact", "path", path)
}
