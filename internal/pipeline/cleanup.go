package pipeline

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"subburn/internal/logging"
	"subburn/internal/services"
)

// Cleanup removes the intermediate files of a finished run and returns the
// paths it deleted. Missing files are skipped; any other removal error stops
// the cleanup and is returned.
func Cleanup(artifacts Artifacts, extensions []string, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	var removed []string
	for _, path := range artifacts.CleanupCandidates(extensions) {
		err := os.Remove(path)
		switch {
		case err == nil:
			logger.Info("deleted intermediate file", logging.String("path", path))
			removed = append(removed, path)
		case errors.Is(err, fs.ErrNotExist):
			continue
		default:
			return removed, services.Wrap(services.ErrTransient, string(stageCleaning), "remove", path, err)
		}
	}
	return removed, nil
}
