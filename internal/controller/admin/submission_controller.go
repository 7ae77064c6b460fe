package admin

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/formpilot/formpilot/internal/dto"
	"github.com/formpilot/formpilot/internal/service"
)

type SubmissionController struct {
	submissionService service.SubmissionService
	exportService     service.ExportService
	authService       service.AuthService
}

func NewSubmissionController(
	submissionService service.SubmissionService,
	exportService service.ExportService,
	authService service.AuthService,
) *SubmissionController {
	return &SubmissionController{
		submissionService: submissionService,
		exportService:     exportService,
		authService:       authService,
	}
}

func writeSubmissionError(ctx *gin.Context, err error, action string) {
	if ve, ok := service.AsValidationError(err); ok {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Kind:    dto.KindValidation,
			Message: "Answers failed validation",
			Details: ve.Violations,
		})
		return
	}
	switch {
	case errors.Is(err, service.ErrFormNotFound):
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{
			Kind:    dto.KindNotFound,
			Message: "Form not found",
		})
	case errors.Is(err, service.ErrSubmissionNotFound):
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{
			Kind:    dto.KindNotFound,
			Message: "Submission not found",
		})
	case errors.Is(err, service.ErrConstraintMisconfigured):
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Kind:    dto.KindConfiguration,
			Message: "Answers conflict with the form's configuration",
		})
	default:
		log.Error().Err(err).Str("action", action).Msg("Submission admin: Service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Kind:    dto.KindInternal,
			Message: "Submission operation failed",
		})
	}
}

// ListSubmissions godoc
// @Summary (Admin) List submissions of a form
// @Tags Admin - Submissions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Form ID"
// @Param page query int false "Page number (1-based)"
// @Param page_size query int false "Page size (default 50)"
// @Success 200 {object} dto.SubmissionListDTO
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/forms/{id}/submissions [get]
func (c *SubmissionController) ListSubmissions(ctx *gin.Context) {
	if _, ok := currentUser(ctx, c.authService); !ok {
		return
	}
	formID, ok := parseID(ctx)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.DefaultQuery("page_size", "50"))

	resp, err := c.submissionService.List(formID, page, pageSize)
	if err != nil {
		writeSubmissionError(ctx, err, "list")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetSubmission godoc
// @Summary (Admin) Get one submission
// @Tags Admin - Submissions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Submission ID"
// @Success 200 {object} dto.SubmissionDTO
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/submissions/{id} [get]
func (c *SubmissionController) GetSubmission(ctx *gin.Context) {
	if _, ok := currentUser(ctx, c.authService); !ok {
		return
	}
	id, ok := parseID(ctx)
	if !ok {
		return
	}
	resp, err := c.submissionService.Get(id)
	if err != nil {
		writeSubmissionError(ctx, err, "load")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// UpdateSubmission godoc
// @Summary (Admin) Replace a submission's answers
// @Description The new answers are validated against the form schema exactly
// @Description like a fresh public submission.
// @Tags Admin - Submissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Submission ID"
// @Param submission body dto.SubmissionUpdateDTO true "Replacement answers"
// @Success 200 {object} dto.SubmissionDTO
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/submissions/{id} [put]
func (c *SubmissionController) UpdateSubmission(ctx *gin.Context) {
	if _, ok := currentUser(ctx, c.authService); !ok {
		return
	}
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	var req dto.SubmissionUpdateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("UpdateSubmission: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Kind:    dto.KindValidation,
			Message: "Invalid request body",
			Details: []string{err.Error()},
		})
		return
	}

	resp, err := c.submissionService.UpdateAnswers(id, req)
	if err != nil {
		writeSubmissionError(ctx, err, "update")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// DeleteSubmission godoc
// @Summary (Admin) Delete a submission
// @Description Removes the submission and decrements the form's counter.
// @Tags Admin - Submissions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Submission ID"
// @Success 204 "Deleted"
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/submissions/{id} [delete]
func (c *SubmissionController) DeleteSubmission(ctx *gin.Context) {
	if _, ok := currentUser(ctx, c.authService); !ok {
		return
	}
	id, ok := parseID(ctx)
	if !ok {
		return
	}
	if err := c.submissionService.Delete(id); err != nil {
		writeSubmissionError(ctx, err, "delete")
		return
	}
	ctx.Status(http.StatusNoContent)
}

// ExportSubmissions godoc
// @Summary (Admin) Export a form's submissions as xlsx
// @Tags Admin - Submissions
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param id path int true "Form ID"
// @Success 200 {file} binary "Workbook download"
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/forms/{id}/export [get]
func (c *SubmissionController) ExportSubmissions(ctx *gin.Context) {
	if _, ok := currentUser(ctx, c.authService); !ok {
		return
	}
	formID, ok := parseID(ctx)
	if !ok {
		return
	}

	name, buf, err := c.exportService.ExportSubmissions(formID)
	if err != nil {
		writeSubmissionError(ctx, err, "export")
		return
	}

	ctx.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	ctx.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
