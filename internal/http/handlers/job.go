package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	types "github.com/noteflow/noteflow-backend/internal/domain"
	"github.com/noteflow/noteflow-backend/internal/http/middleware"
	"github.com/noteflow/noteflow-backend/internal/http/response"
	"github.com/noteflow/noteflow-backend/internal/platform/apierr"
	"github.com/noteflow/noteflow-backend/internal/platform/logger"
	"github.com/noteflow/noteflow-backend/internal/services"
)

type JobHandler struct {
	log  *logger.Logger
	jobs services.JobService
}

func NewJobHandler(baseLog *logger.Logger, jobs services.JobService) *JobHandler {
	return &JobHandler{
		log:  baseLog.With("handler", "JobHandler"),
		jobs: jobs,
	}
}

// POST /jobs
func (jh *JobHandler) Create(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if u == nil {
		response.RespondError(c, apierr.New(http.StatusUnauthorized, "unauthenticated", errors.New("missing authenticated user")))
		return
	}

	var req struct {
		SourceType  string `json:"sourceType"`
		FileID      string `json:"fileId"`
		URL         string `json:"url"`
		TextContent string `json:"textContent"`
		Title       string `json:"title"`
		Notes       string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, apierr.New(http.StatusBadRequest, "validation_failed", err))
		return
	}

	job, err := jh.jobs.Create(c.Request.Context(), services.CreateJobRequest{
		SourceType:  req.SourceType,
		FileID:      req.FileID,
		URL:         req.URL,
		TextContent: req.TextContent,
		Title:       req.Title,
		Notes:       req.Notes,
	}, u)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, "Job created successfully", toJobPayload(job))
}

// GET /jobs/:id
func (jh *JobHandler) Get(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if u == nil {
		response.RespondError(c, apierr.New(http.StatusUnauthorized, "unauthenticated", errors.New("missing authenticated user")))
		return
	}
	job, err := jh.jobs.GetByID(c.Request.Context(), c.Param("id"), u)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, "Job retrieved successfully", toJobPayload(job))
}

// GET /jobs?page=&size=&status=
func (jh *JobHandler) List(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if u == nil {
		response.RespondError(c, apierr.New(http.StatusUnauthorized, "unauthenticated", errors.New("missing authenticated user")))
		return
	}

	page := parseIntQuery(c, "page", 0)
	size := parseIntQuery(c, "size", 10)

	var (
		jobs []*types.Job
		err  error
	)
	if raw := c.Query("status"); raw != "" {
		status, ok := types.ParseStatus(raw)
		if !ok {
			response.RespondError(c, apierr.New(http.StatusBadRequest, "validation_failed", errors.New("Invalid status value: "+raw)))
			return
		}
		jobs, err = jh.jobs.ListForUserByStatus(c.Request.Context(), u, status, page, size)
	} else {
		jobs, err = jh.jobs.ListForUser(c.Request.Context(), u, page, size)
	}
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, "Jobs retrieved successfully", toJobPayloads(jobs))
}

// DELETE /jobs/:id
func (jh *JobHandler) Delete(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if u == nil {
		response.RespondError(c, apierr.New(http.StatusUnauthorized, "unauthenticated", errors.New("missing authenticated user")))
		return
	}
	if err := jh.jobs.Delete(c.Request.Context(), c.Param("id"), u); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, "Job deleted successfully", nil)
}

func parseIntQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
