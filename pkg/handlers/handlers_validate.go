package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/festival-planner-go/pkg/models"
)

// ValidateInput checks an event list without laying it out and reports every
// problem per event instead of stopping at the first one.
func (h *Handler) ValidateInput(c *gin.Context) {
	var input models.ValidateRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	if len(input.Events) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"valid": false,
			"error": "At least one event is required",
		})
		return
	}

	issues := []models.ValidationIssue{}
	ids := make(map[string]bool, len(input.Events))
	days := make(map[string]bool)
	for _, ev := range input.Events {
		var reasons []string
		if ev.ID == "" {
			reasons = append(reasons, "missing id")
		} else if ids[ev.ID] {
			reasons = append(reasons, "duplicate id")
		}
		ids[ev.ID] = true

		if _, err := h.Lineup.DayIndex(ev.Day); err != nil {
			reasons = append(reasons, err.Error())
		} else {
			days[ev.Day] = true
		}
		if _, _, err := h.Lineup.GroupOf(ev.Stage); err != nil {
			reasons = append(reasons, err.Error())
		}
		if _, _, err := h.Scheduler.Clock.Span(ev.Start, ev.End); err != nil {
			reasons = append(reasons, err.Error())
		}

		if len(reasons) > 0 {
			issues = append(issues, models.ValidationIssue{EventID: ev.ID, Reasons: reasons})
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":  len(issues) == 0,
		"issues": issues,
		"stats": gin.H{
			"event_count": len(input.Events),
			"day_count":   len(days),
		},
	})
}
