package public

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/formpilot/formpilot/internal/dto"
	"github.com/formpilot/formpilot/internal/service"
)

type FormController struct {
	publicFormService service.PublicFormService
	submissionService service.SubmissionService
}

func NewFormController(publicFormService service.PublicFormService, submissionService service.SubmissionService) *FormController {
	return &FormController{
		publicFormService: publicFormService,
		submissionService: submissionService,
	}
}

// GetDisplayedForm godoc
// @Summary Get the currently displayed form
// @Description Returns the single form currently published for public display.
// @Tags Public - Forms
// @Produce json
// @Success 200 {object} dto.PublicFormDTO
// @Failure 404 {object} dto.ErrorResponse "No form is displayed"
// @Router /public/forms/displayed [get]
func (c *FormController) GetDisplayedForm(ctx *gin.Context) {
	form, err := c.publicFormService.GetDisplayedForm()
	if err != nil {
		if errors.Is(err, service.ErrFormNotFound) {
			ctx.JSON(http.StatusNotFound, dto.ErrorResponse{
				Kind:    dto.KindNotFound,
				Message: "No form is currently displayed",
			})
			return
		}
		log.Error().Err(err).Msg("GetDisplayedForm: Service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Kind:    dto.KindInternal,
			Message: "Failed to load form",
		})
		return
	}
	ctx.JSON(http.StatusOK, form)
}

// GetForm godoc
// @Summary Get a public form by id
// @Tags Public - Forms
// @Produce json
// @Param id path int true "Form ID"
// @Success 200 {object} dto.PublicFormDTO
// @Failure 404 {object} dto.ErrorResponse "Form not found or inactive"
// @Router /public/forms/{id} [get]
func (c *FormController) GetForm(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Kind:    dto.KindValidation,
			Message: "Invalid form id",
		})
		return
	}

	form, err := c.publicFormService.GetForm(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrFormNotFound) {
			ctx.JSON(http.StatusNotFound, dto.ErrorResponse{
				Kind:    dto.KindNotFound,
				Message: "Form not found",
			})
			return
		}
		log.Error().Err(err).Uint64("form_id", id).Msg("GetForm: Service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Kind:    dto.KindInternal,
			Message: "Failed to load form",
		})
		return
	}
	ctx.JSON(http.StatusOK, form)
}

// Submit godoc
// @Summary Submit responses to a form
// @Description Validates the responses against the form schema, enforces the
// @Description form's uniqueness constraint, and stores the submission. Side
// @Description effects such as the QR code and the confirmation email are
// @Description reported in the response body and never fail the submission.
// @Tags Public - Forms
// @Accept json
// @Produce json
// @Param id path int true "Form ID"
// @Param submission body dto.SubmitRequestDTO true "Responses keyed by field id"
// @Success 201 {object} dto.SubmitResponseDTO "Submission stored"
// @Failure 400 {object} dto.ErrorResponse "Validation or configuration failure"
// @Failure 404 {object} dto.ErrorResponse "Form not found or inactive"
// @Failure 409 {object} dto.ErrorResponse "Duplicate submission"
// @Router /public/forms/{id}/submissions [post]
func (c *FormController) Submit(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Kind:    dto.KindValidation,
			Message: "Invalid form id",
		})
		return
	}

	var req dto.SubmitRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Submit: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Kind:    dto.KindValidation,
			Message: "Invalid request body",
			Details: []string{err.Error()},
		})
		return
	}

	meta := service.SubmitMeta{
		IP:        ctx.ClientIP(),
		UserAgent: ctx.Request.UserAgent(),
	}

	resp, err := c.submissionService.Submit(uint(id), req, meta)
	if err != nil {
		c.writeSubmitError(ctx, uint(id), err)
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

func (c *FormController) writeSubmitError(ctx *gin.Context, formID uint, err error) {
	if ve, ok := service.AsValidationError(err); ok {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Kind:    dto.KindValidation,
			Message: "Submission failed validation",
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
	case errors.Is(err, service.ErrDuplicateSubmission):
		ctx.JSON(http.StatusConflict, dto.ErrorResponse{
			Kind:    dto.KindDuplicate,
			Message: "A matching submission already exists for this form",
		})
	case errors.Is(err, service.ErrConstraintMisconfigured):
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Kind:    dto.KindConfiguration,
			Message: "Submission conflicts with the form's configuration",
		})
	default:
		log.Error().Err(err).Uint("form_id", formID).Msg("Submit: Service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Kind:    dto.KindInternal,
			Message: "Failed to store submission",
		})
	}
}
