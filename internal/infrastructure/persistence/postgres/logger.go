package postgres

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// GORMLogWriter implements GORM's Writer interface for query logging
type GORMLogWriter struct {
	logger *zap.Logger
}

// Printf implements the Writer interface
func (w *GORMLogWriter) Printf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)

	switch {
	case strings.Contains(msg, "SLOW SQL"):
		w.logger.Warn("GORM slow query", zap.String("message", msg))
	case strings.Contains(msg, "error"), strings.Contains(msg, "Error"):
		w.logger.Error("GORM error", zap.String("message", msg))
	default:
		w.logger.Debug("GORM query", zap.String("message", msg))
	}
}
