// Package fileutil provides filesystem helpers, including atomic writes.
package fileutil

import (
	"os"
	"path/filepath"

	"github.com/gbrlfaria/chaseconv/internal/errors"
)

// Stem returns the base name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

// FileEntry is one payload of a file set write.
type FileEntry struct {
	Path string
	Data []byte
}

// AtomicWriteFile writes data to a file atomically using a temp file + rename.
// An interrupted write never leaves a partial file at path.
//
// The caller is responsible for ensuring the parent directory exists.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	return WriteFileSet([]FileEntry{{Path: path, Data: data}}, perm)
}

// WriteFileSet writes the given files as one unit: every payload is staged to
// a temp file in its target directory first, and the renames happen only once
// every stage succeeded. A failure while staging leaves no file of the set
// behind.
func WriteFileSet(files []FileEntry, perm os.FileMode) error {
	staged := make([]string, 0, len(files))
	defer func() {
		for _, tmp := range staged {
			if _, err := os.Stat(tmp); err == nil {
				os.Remove(tmp)
			}
		}
	}()

	for _, file := range files {
		tmp, err := stageFile(file.Path, file.Data, perm)
		if tmp != "" {
			staged = append(staged, tmp)
		}
		if err != nil {
			return err
		}
	}

	for i, file := range files {
		if err := os.Rename(staged[i], file.Path); err != nil {
			return errors.Wrapf(errors.Mark(err, errors.ErrIO), "renaming temp file for %s", file.Path)
		}
	}

	return nil
}

// stageFile writes data to a temp file next to path so the final rename stays
// on one filesystem. It returns the temp file's name.
func stageFile(path string, data []byte, perm os.FileMode) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".chaseconv-*.tmp")
	if err != nil {
		return "", errors.Wrap(errors.Mark(err, errors.ErrIO), "creating temp file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return tmpName, errors.Wrap(errors.Mark(err, errors.ErrIO), "writing temp file")
	}

	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return tmpName, errors.Wrap(errors.Mark(err, errors.ErrIO), "setting file permissions")
	}

	if err := tmp.Close(); err != nil {
		return tmpName, errors.Wrap(errors.Mark(err, errors.ErrIO), "closing temp file")
	}

	return tmpName, nil
}
