package api

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/diskseek/diskseek/internal/logger"
)

// LogsProvider exposes the in-memory log buffer and the active log file.
type LogsProvider interface {
	GetRecentLogs() []logger.LogEntry
	GetLogFilePath() string
}

type logsParams struct {
	Level     string `query:"level"`
	Component string `query:"component"`
	Limit     string `query:"limit"`
}

// logFilter keeps entries at or above a level from a set of components.
type logFilter struct {
	minLevel   zerolog.Level
	components map[string]bool
	limit      int
}

func parseLogFilter(p logsParams) (logFilter, error) {
	f := logFilter{minLevel: zerolog.TraceLevel, limit: -1}

	if p.Level != "" {
		level, err := zerolog.ParseLevel(strings.ToLower(p.Level))
		if err != nil || level == zerolog.NoLevel {
			return f, fmt.Errorf("%w: level=%q is not a log level", errInvalidParam, p.Level)
		}
		f.minLevel = level
	}
	if p.Component != "" {
		f.components = map[string]bool{}
		for _, name := range strings.Split(p.Component, ",") {
			if name = strings.TrimSpace(name); name != "" {
				f.components[name] = true
			}
		}
	}
	if p.Limit != "" {
		limit, err := strconv.Atoi(p.Limit)
		if err != nil || limit < 0 {
			return f, fmt.Errorf("%w: limit=%q must be a non-negative integer", errInvalidParam, p.Limit)
		}
		f.limit = limit
	}
	return f, nil
}

// apply returns the newest matching entries, oldest first.
func (f logFilter) apply(entries []logger.LogEntry) []logger.LogEntry {
	out := make([]logger.LogEntry, 0, len(entries))
	for _, e := range entries {
		if f.components != nil && !f.components[e.Component] {
			continue
		}
		if logger.ParseLevel(e.Level) < f.minLevel {
			continue
		}
		out = append(out, e)
	}
	if f.limit >= 0 && f.limit < len(out) {
		out = out[len(out)-f.limit:]
	}
	return out
}

func (s *Server) recentLogs(c echo.Context) error {
	var params logsParams
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid log parameters")
	}
	filter, err := parseLogFilter(params)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, filter.apply(s.logs.GetRecentLogs()))
}

func (s *Server) downloadLogs(c echo.Context) error {
	logPath := s.logs.GetLogFilePath()
	if logPath == "" {
		return echo.NewHTTPError(http.StatusNotFound, "no log file configured")
	}
	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		return echo.NewHTTPError(http.StatusNotFound, "log file not found")
	}
	return c.Attachment(logPath, "diskseek.log")
}
