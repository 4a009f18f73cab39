package api

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"skillatlas/internal/api/middleware"
	"skillatlas/internal/database"
	"skillatlas/internal/intake"
	"skillatlas/internal/roadmap"
)

// PathHandler serves learning path generation, fetch and progress updates.
type PathHandler struct {
	Roadmap *roadmap.Service
	Intake  *intake.Service
}

func NewPathHandler(roadmapSvc *roadmap.Service, intakeSvc *intake.Service) *PathHandler {
	return &PathHandler{Roadmap: roadmapSvc, Intake: intakeSvc}
}

// accessibleResumeID resolves :id and enforces the same ownership rule as the
// resume handlers: a stranger gets the same 404 as a missing record.
func (h *PathHandler) accessibleResumeID(c *gin.Context) (uint, bool) {
	id := parseUintParam(c, "id")
	if id == 0 {
		BadRequest(c, "invalid resume id")
		return 0, false
	}
	resume, err := h.Intake.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, middleware.LoggerFromContext(c), err)
		return 0, false
	}
	if !resumeVisibleTo(c, resume) {
		NotFound(c, "resume not found")
		return 0, false
	}
	return id, true
}

type generatePathRequest struct {
	TargetRole       string `json:"target_role" binding:"required"`
	ExperienceLevel  string `json:"experience_level"`
	TimeAvailability string `json:"time_availability"`
}

// Generate creates or fully replaces the learning path for a resume.
func (h *PathHandler) Generate(c *gin.Context) {
	id, ok := h.accessibleResumeID(c)
	if !ok {
		return
	}

	var req generatePathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	path, err := h.Roadmap.GenerateOrUpdate(c.Request.Context(), roadmap.GenerateInput{
		ResumeID:         id,
		TargetRole:       req.TargetRole,
		ExperienceLevel:  req.ExperienceLevel,
		TimeAvailability: req.TimeAvailability,
	})
	if err != nil {
		respondServiceError(c, middleware.LoggerFromContext(c), err)
		return
	}

	c.JSON(http.StatusCreated, pathResponse(path))
}

// Get fetches the learning path for a resume.
func (h *PathHandler) Get(c *gin.Context) {
	id, ok := h.accessibleResumeID(c)
	if !ok {
		return
	}

	path, err := h.Roadmap.GetByResumeID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, middleware.LoggerFromContext(c), err)
		return
	}
	c.JSON(http.StatusOK, pathResponse(path))
}

// Roles lists the target roles that have a built-in roadmap template.
func (h *PathHandler) Roles(c *gin.Context) {
	roles := roadmap.KnownRoles()
	sort.Strings(roles)
	c.JSON(http.StatusOK, gin.H{"roles": roles})
}

type progressRequest struct {
	Skill  string `json:"skill" binding:"required"`
	Status string `json:"status" binding:"required"`
}

// UpdateProgress sets the status of one step and records the daily score.
func (h *PathHandler) UpdateProgress(c *gin.Context) {
	id, ok := h.accessibleResumeID(c)
	if !ok {
		return
	}

	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	path, err := h.Roadmap.UpdateProgress(c.Request.Context(), id, req.Skill, req.Status)
	if err != nil {
		respondServiceError(c, middleware.LoggerFromContext(c), err)
		return
	}
	c.JSON(http.StatusOK, pathResponse(path))
}

func pathResponse(p *database.LearningPath) gin.H {
	return gin.H{
		"id":                p.ID,
		"resume_id":         p.ResumeID,
		"target_role":       p.TargetRole,
		"experience_level":  p.ExperienceLevel,
		"time_availability": p.TimeAvailability,
		"steps":             p.Steps,
		"insight":           p.Insight,
		"growth_factor":     p.GrowthFactor,
		"score_history":     p.ScoreHistory,
		"updated_at":        p.UpdatedAt,
	}
}
