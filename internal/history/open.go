package history

import (
	"github.com/kayz/techwatch/internal/config"
	"github.com/kayz/techwatch/internal/logger"
)

// Open builds the configured history backend. Persistence failures degrade
// to a NopStore (everything new) instead of failing the pipeline.
func Open(cfg config.HistoryConfig, path string) Store {
	switch cfg.Backend {
	case "file":
		return NewFileStore(path, cfg.RetentionDays)
	default:
		s, err := NewSQLiteStore(path, cfg.RetentionDays)
		if err != nil {
			logger.Warn("history store unavailable, treating everything as new", "path", path, "error", err)
			return NopStore{}
		}
		return s
	}
}
