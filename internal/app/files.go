package app

import (
	"errors"
	"io/fs"
	"os"

	"go.uber.org/zap"
)

// RemoveOutput deletes an artifact of a previous run and reports whether
// one existed.
func RemoveOutput(path string) (bool, error) {
	err := os.Remove(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func LogRemoval(log *zap.Logger, path string, removed bool) {
	if removed {
		log.Info("old output deleted", zap.String("path", path))
		return
	}
	log.Info("no previous output found", zap.String("path", path))
}

func DeleteFile(path string, log *zap.Logger) error {
	removed, err := RemoveOutput(path)
	if err != nil {
		return err
	}
	LogRemoval(log, path, removed)
	return nil
}
