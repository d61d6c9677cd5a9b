package server

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"time"

	ceTypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/gin-gonic/gin"

	"github.com/younsl/costboard/internal/models"
	"github.com/younsl/costboard/internal/version"
	"github.com/younsl/costboard/pkg/pipeline"
)

// fetchErrorMessage is the error body returned when a dashboard cannot be
// built. Existing dashboard clients match on this exact text.
const fetchErrorMessage = "Failed to fetch EC2 data"

const timelineErrorMessage = "Failed to fetch utilization data"

type errorResponse struct {
	Error string `json:"error"`
}

// viewBody is a view request plus the aggregation options it applies to
type viewBody struct {
	models.ViewRequest
	LookbackDays int    `json:"lookbackDays"`
	GroupBy      string `json:"groupBy"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleVersion(c *gin.Context) {
	c.JSON(http.StatusOK, version.Get())
}

// handleDashboard serves the unfiltered dashboard
func (s *Server) handleDashboard(c *gin.Context) {
	req, err := parseRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	dashboard, ok := s.aggregate(c, req)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// handleView applies filters and sorting to the dashboard
func (s *Server) handleView(c *gin.Context) {
	var body viewBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid view request: %v", err)})
		return
	}

	if body.LookbackDays < 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("lookbackDays must not be negative, got %d", body.LookbackDays)})
		return
	}
	if err := validateGroupBy(body.GroupBy); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := pipeline.ValidateSort(body.OrderBy, body.Order); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	dashboard, ok := s.aggregate(c, pipeline.Request{LookbackDays: body.LookbackDays, GroupBy: body.GroupBy})
	if !ok {
		return
	}

	view, err := pipeline.BuildView(dashboard, body.ViewRequest)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, view)
}

// handleSpikes serves spike detection over the daily cost trend
func (s *Server) handleSpikes(c *gin.Context) {
	req, err := parseRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	dashboard, ok := s.aggregate(c, req)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, pipeline.DetectSpikes(dashboard.TrendData.Trend))
}

// handleOptions serves the values selectable in each filter dimension
func (s *Server) handleOptions(c *gin.Context) {
	req, err := parseRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	dashboard, ok := s.aggregate(c, req)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, pipeline.FilterOptions(dashboard.AllInstances))
}

// handleTimeline serves the CPU utilization series of one instance
func (s *Server) handleTimeline(c *gin.Context) {
	window, err := models.ParseUtilizationWindow(c.Query("window"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	timeline, err := s.timelines.Timeline(c.Request.Context(), c.Param("id"), window)
	if err != nil {
		if errors.Is(err, pipeline.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		s.logger.Error().
			Err(err).
			Str("request_id", c.GetString(requestIDKey)).
			Str("kind", models.ErrorKind(err)).
			Msg("Error building utilization timeline")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: timelineErrorMessage})
		return
	}
	c.JSON(http.StatusOK, timeline)
}

// aggregate builds the dashboard for req and writes the error response when
// that fails. It reports whether the caller should continue.
func (s *Server) aggregate(c *gin.Context, req pipeline.Request) (*models.Dashboard, bool) {
	start := time.Now()
	dashboard, err := s.dashboards.Aggregate(c.Request.Context(), req)
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(err, pipeline.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
			return nil, false
		}

		kind := models.ErrorKind(err)
		s.metrics.ObserveAggregation(elapsed, kind)
		s.logger.Error().
			Err(err).
			Str("request_id", c.GetString(requestIDKey)).
			Str("kind", kind).
			Msg("Error building dashboard")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: fetchErrorMessage})
		return nil, false
	}

	s.metrics.ObserveAggregation(elapsed, "")
	return dashboard, true
}

// parseRequest reads the optional lookbackDays and groupBy query parameters
func parseRequest(c *gin.Context) (pipeline.Request, error) {
	req := pipeline.Request{GroupBy: c.Query("groupBy")}

	if v := c.Query("lookbackDays"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days <= 0 {
			return req, fmt.Errorf("lookbackDays must be a positive integer, got %q", v)
		}
		req.LookbackDays = days
	}

	return req, validateGroupBy(req.GroupBy)
}

// validateGroupBy accepts an empty value or a Cost Explorer dimension
func validateGroupBy(groupBy string) error {
	if groupBy == "" || slices.Contains(ceTypes.Dimension("").Values(), ceTypes.Dimension(groupBy)) {
		return nil
	}
	return fmt.Errorf("groupBy %q is not a cost dimension", groupBy)
}
