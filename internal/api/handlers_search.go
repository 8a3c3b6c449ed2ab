package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/diskseek/diskseek/internal/platform"
	"github.com/diskseek/diskseek/internal/progress"
	"github.com/diskseek/diskseek/internal/search"
)

// HeaderSearchPartial is set on search responses cut short by the timeout.
const HeaderSearchPartial = "X-Search-Partial"

type searchParams struct {
	Query     string `query:"query"`
	Extension string `query:"extension"`
	Volume    string `query:"volume"`
	Folders   string `query:"folders"`
	Sort      string `query:"sort"`
	Desc      string `query:"desc"`
}

type revealRequest struct {
	Path string `json:"path"`
}

func (s *Server) listVolumes(c echo.Context) error {
	return c.JSON(http.StatusOK, s.volumes.List())
}

func (s *Server) runSearch(c echo.Context) error {
	var params searchParams
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid search parameters")
	}

	folders, err := parseBoolParam("folders", params.Folders)
	if err != nil {
		return mapError(err)
	}
	desc, err := parseBoolParam("desc", params.Desc)
	if err != nil {
		return mapError(err)
	}
	sortField, err := search.ParseSortField(params.Sort)
	if err != nil {
		return mapError(err)
	}

	criteria := search.Criteria{
		Query:              params.Query,
		Extension:          params.Extension,
		IncludeDirectories: folders,
		Volume:             params.Volume,
	}

	ctx := c.Request().Context()
	if timeout := s.cfg.Search.Timeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var activityID string
	if s.progress != nil {
		activityID = s.progress.Start(progress.ActivityTypeSearch, searchTitle(criteria))
		s.progress.SetMetadata(activityID, "query", criteria.Query)
		s.progress.SetMetadata(activityID, "volume", criteria.Volume)
	}

	matches := s.search.Search(ctx, criteria)
	search.SortMatches(matches, sortField, desc)

	partial := false
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		partial = true
		c.Response().Header().Set(HeaderSearchPartial, "true")
		s.finishActivity(activityID, func(id string) {
			s.progress.SetMetadata(id, "partial", true)
			s.progress.Complete(id, fmt.Sprintf("%d matches (timed out)", len(matches)))
		})
	case ctx.Err() != nil:
		s.finishActivity(activityID, s.progress.Cancel)
	default:
		s.finishActivity(activityID, func(id string) {
			s.progress.SetMetadata(id, "matches", len(matches))
			s.progress.Complete(id, fmt.Sprintf("%d matches", len(matches)))
		})
	}

	if partial {
		s.logger.Warn().
			Str("query", criteria.Query).
			Dur("timeout", s.cfg.Search.Timeout).
			Int("matches", len(matches)).
			Msg("Search timed out, returning partial results")
	}

	return c.JSON(http.StatusOK, matches)
}

func (s *Server) finishActivity(id string, finish func(string)) {
	if s.progress == nil || id == "" {
		return
	}
	finish(id)
}

func (s *Server) revealPath(c echo.Context) error {
	var req revealRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Path) == "" {
		return mapError(platform.ErrEmptyPath)
	}

	if err := s.reveal(c.Request().Context(), req.Path); err != nil {
		s.logger.Warn().Err(err).Str("path", req.Path).Msg("Failed to reveal path")
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// errInvalidParam marks a malformed query parameter.
var errInvalidParam = errors.New("invalid parameter")

func parseBoolParam(name, value string) (bool, error) {
	if value == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%w: %s=%q is not a boolean", errInvalidParam, name, value)
	}
	return b, nil
}

func searchTitle(c search.Criteria) string {
	switch {
	case c.Query != "" && c.Extension != "":
		return fmt.Sprintf("Searching for %q (%s)", c.Query, c.Extension)
	case c.Query != "":
		return fmt.Sprintf("Searching for %q", c.Query)
	case c.Extension != "":
		return fmt.Sprintf("Searching for %s files", c.Extension)
	default:
		return "Searching all entries"
	}
}

// mapError translates domain errors into HTTP errors.
func mapError(err error) error {
	switch {
	case errors.Is(err, errInvalidParam),
		errors.Is(err, search.ErrInvalidSortField),
		errors.Is(err, platform.ErrEmptyPath):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, platform.ErrPathNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
