package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Yev-ux/newsggl/internal/model"

	"github.com/gin-gonic/gin"
)

type SummaryStore interface {
	GetDaySummaries(day string) ([]model.GroupSummary, error)
	GetGroupSummary(day, kind, value string) (*model.GroupSummary, error)
}

type DigestHandler struct {
	repository SummaryStore
	location   *time.Location
}

func NewDigestHandler(repository SummaryStore, location *time.Location) *DigestHandler {
	return &DigestHandler{repository: repository, location: location}
}

// GetDigest serves the stored group summaries for a date. With kind and value
// query parameters it returns the single matching group.
func (h *DigestHandler) GetDigest(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = time.Now().In(h.location).Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
		return
	}

	kind := c.Query("kind")
	value := c.Query("value")

	if kind != "" || value != "" {
		if kind == "" || value == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "kind and value must be provided together"})
			return
		}
		summary, err := h.repository.GetGroupSummary(date, kind, value)
		if err != nil {
			slog.Error("error fetching group summary", "date", date, "kind", kind, "value", value, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		if summary == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Summary not found"})
			return
		}
		c.JSON(http.StatusOK, toSummaryResponse(*summary))
		return
	}

	summaries, err := h.repository.GetDaySummaries(date)
	if err != nil {
		slog.Error("error fetching digest", "date", date, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	groups := make([]GroupSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		groups = append(groups, toSummaryResponse(s))
	}

	c.JSON(http.StatusOK, DigestResponse{
		Date:   date,
		Groups: groups,
		Total:  len(groups),
	})
}

func (h *DigestHandler) GetHealth(c *gin.Context) {
	today := time.Now().In(h.location).Format("2006-01-02")
	if _, err := h.repository.GetDaySummaries(today); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": "disconnected",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": "connected",
	})
}

func toSummaryResponse(s model.GroupSummary) GroupSummaryResponse {
	links := make([]TopLinkResponse, 0, len(s.TopLinks))
	for _, l := range s.TopLinks {
		links = append(links, TopLinkResponse{
			Title:       l.Title,
			URL:         l.URL,
			Source:      l.Source,
			PublishedAt: l.PublishedAt.Format(time.RFC3339),
		})
	}

	return GroupSummaryResponse{
		Kind:       s.Kind,
		Value:      s.Value,
		Bullets:    s.Bullets,
		TopLinks:   links,
		ItemsCount: s.ItemsCount,
		Model:      s.Model,
		Status:     statusLabel(s.Outcome()),
		CreatedAt:  s.CreatedAt.Format(time.RFC3339),
	}
}

func statusLabel(o model.Outcome) string {
	switch o {
	case model.OutcomeEmpty:
		return "empty"
	case model.OutcomeError:
		return "error"
	default:
		return "ok"
	}
}
