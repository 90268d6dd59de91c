package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/festival-planner-go/pkg/models"
	"github.com/arnavshah/festival-planner-go/pkg/scheduler"
)

// GetLineup returns the configured days and stage groups
func (h *Handler) GetLineup(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"days":         h.Lineup.Days,
		"stage_groups": h.Lineup.StageGroups,
	})
}

// Layout positions the submitted events for rendering
func (h *Handler) Layout(c *gin.Context) {
	var req models.LayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	selected := make([]string, len(req.Selected))
	for i, s := range req.Selected {
		selected[i] = s.EventID
	}

	resp, err := h.Scheduler.Layout(req.Events, scheduler.LayoutOptions{
		Mode:          req.FilterMode,
		VisibleStages: req.VisibleStages,
		Selected:      selected,
		Reverse:       req.Reverse,
		Scale:         req.Scale,
		MaxHeight:     req.MaxHeight,
	})
	if err != nil {
		abortWithError(c, "layout", err)
		return
	}

	h.RecordUsage(c, len(req.Events), len(req.Selected))
	c.JSON(http.StatusOK, resp)
}

// Stats computes clashes and completion statistics for a selection
func (h *Handler) Stats(c *gin.Context) {
	var req models.StatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.Aggregator.Summarize(req.Events, req.Selected, req.MinInterest)
	if err != nil {
		abortWithError(c, "stats", err)
		return
	}

	h.RecordUsage(c, len(req.Events), len(req.Selected))
	c.JSON(http.StatusOK, summary)
}

// ExportICS renders the selected events as an iCalendar download
func (h *Handler) ExportICS(c *gin.Context) {
	var req models.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	body, err := h.Exporter.Export(req.Events, req.Selected)
	if err != nil {
		abortWithError(c, "ics export", err)
		return
	}

	h.RecordUsage(c, len(req.Events), len(req.Selected))
	c.Header("Content-Disposition", `attachment; filename="festival.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}
