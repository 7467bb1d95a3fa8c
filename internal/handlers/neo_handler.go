package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"neowatch/internal/export"
	"neowatch/internal/filters"
	"neowatch/internal/service"
)

type NEOHandler struct {
	service  service.NEOService
	exporter *export.Exporter
}

func NewNEOHandler(service service.NEOService, exporter *export.Exporter) *NEOHandler {
	return &NEOHandler{service: service, exporter: exporter}
}

// GetNEO looks an NEO up by its primary designation.
func (h *NEOHandler) GetNEO(c *gin.Context) {
	designation := c.Param("designation")

	neo, ok := h.service.LookupDesignation(designation)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": fmt.Sprintf("no NEO with designation %q", designation),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"neo":        neo.Serialize(),
		"fullname":   neo.Fullname(),
		"approaches": len(neo.Approaches),
	})
}

// FindNEO looks an NEO up by its IAU name (?name=Eros, case-sensitive).
func (h *NEOHandler) FindNEO(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name query parameter is required"})
		return
	}

	neo, ok := h.service.LookupName(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": fmt.Sprintf("no NEO named %q", name),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"neo":        neo.Serialize(),
		"fullname":   neo.Fullname(),
		"approaches": len(neo.Approaches),
	})
}

// QueryApproaches filters close approaches by the query parameters and
// returns at most ?limit results.
func (h *NEOHandler) QueryApproaches(c *gin.Context) {
	ctx := c.Request.Context()

	criteria, err := parseCriteria(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		if limit, err = strconv.Atoi(limitStr); err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
	}

	results, err := h.service.QuerySerialized(ctx, criteria, limit)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrNotLoaded) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"error":   "failed to query close approaches",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count": len(results),
		"items": results,
	})
}

// ExportApproaches runs the same query and sends the results back as a
// csv, json or xlsx file.
func (h *NEOHandler) ExportApproaches(c *gin.Context) {
	criteria, err := parseCriteria(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		if limit, err = strconv.Atoi(limitStr); err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
	}

	approaches, err := h.service.QueryApproaches(criteria, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to query close approaches",
			"message": err.Error(),
		})
		return
	}

	format := c.DefaultQuery("format", "csv")
	path, err := h.exporter.Export(format, approaches)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to export close approaches",
			"message": err.Error(),
		})
		return
	}

	c.File(path)
}

func parseCriteria(c *gin.Context) (filters.Criteria, error) {
	var criteria filters.Criteria
	var err error

	if criteria.Date, err = dateParam(c, "date"); err != nil {
		return criteria, err
	}
	if criteria.StartDate, err = dateParam(c, "start_date"); err != nil {
		return criteria, err
	}
	if criteria.EndDate, err = dateParam(c, "end_date"); err != nil {
		return criteria, err
	}

	if criteria.DistanceMin, err = floatParam(c, "min_distance"); err != nil {
		return criteria, err
	}
	if criteria.DistanceMax, err = floatParam(c, "max_distance"); err != nil {
		return criteria, err
	}
	if criteria.VelocityMin, err = floatParam(c, "min_velocity"); err != nil {
		return criteria, err
	}
	if criteria.VelocityMax, err = floatParam(c, "max_velocity"); err != nil {
		return criteria, err
	}
	if criteria.DiameterMin, err = floatParam(c, "min_diameter"); err != nil {
		return criteria, err
	}
	if criteria.DiameterMax, err = floatParam(c, "max_diameter"); err != nil {
		return criteria, err
	}

	if criteria.Hazardous, err = boolParam(c, "hazardous"); err != nil {
		return criteria, err
	}

	return criteria, nil
}

func dateParam(c *gin.Context, name string) (*time.Time, error) {
	value := c.Query(name)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: expected YYYY-MM-DD, got %q", name, value)
	}
	return &t, nil
}

func floatParam(c *gin.Context, name string) (*float64, error) {
	value := c.Query(name)
	if value == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %q is not a number", name, value)
	}
	return &f, nil
}

func boolParam(c *gin.Context, name string) (*bool, error) {
	value := c.Query(name)
	if value == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %q is not a boolean", name, value)
	}
	return &b, nil
}
