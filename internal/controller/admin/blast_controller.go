package admin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/formpilot/formpilot/internal/dto"
	"github.com/formpilot/formpilot/internal/service"
)

type BlastController struct {
	blastService service.BlastService
	authService  service.AuthService
}

func NewBlastController(blastService service.BlastService, authService service.AuthService) *BlastController {
	return &BlastController{blastService: blastService, authService: authService}
}

// CreateBlast godoc
// @Summary (Admin) Queue an email blast to a form's submitters
// @Description Creates a blast job addressed to every distinct submitter email
// @Description of the form. The job runs in the background; poll its status.
// @Tags Admin - Blasts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Form ID"
// @Param blast body dto.BlastCreateDTO true "Subject and HTML body"
// @Success 202 {object} dto.BlastResponseDTO "Blast queued"
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/forms/{id}/blast [post]
func (c *BlastController) CreateBlast(ctx *gin.Context) {
	user, ok := currentUser(ctx, c.authService)
	if !ok {
		return
	}
	formID, ok := parseID(ctx)
	if !ok {
		return
	}

	var req dto.BlastCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("CreateBlast: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Kind:    dto.KindValidation,
			Message: "Invalid request body",
			Details: []string{err.Error()},
		})
		return
	}

	resp, err := c.blastService.CreateBlast(user, formID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFormNotFound):
			ctx.JSON(http.StatusNotFound, dto.ErrorResponse{
				Kind:    dto.KindNotFound,
				Message: "Form not found",
			})
		case errors.Is(err, service.ErrForbidden):
			ctx.JSON(http.StatusForbidden, dto.ErrorResponse{
				Kind:    dto.KindUnauthorized,
				Message: "Not allowed to manage this form",
			})
		default:
			log.Error().Err(err).Uint("form_id", formID).Msg("CreateBlast: Service error")
			ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{
				Kind:    dto.KindInternal,
				Message: "Failed to queue blast",
			})
		}
		return
	}
	ctx.JSON(http.StatusAccepted, resp)
}

// GetBlast godoc
// @Summary (Admin) Get a blast's status and tallies
// @Tags Admin - Blasts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Blast ID"
// @Success 200 {object} dto.BlastResponseDTO
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/blasts/{id} [get]
func (c *BlastController) GetBlast(ctx *gin.Context) {
	if _, ok := currentUser(ctx, c.authService); !ok {
		return
	}
	id, ok := parseID(ctx)
	if !ok {
		return
	}
	resp, err := c.blastService.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrBlastNotFound) {
			ctx.JSON(http.StatusNotFound, dto.ErrorResponse{
				Kind:    dto.KindNotFound,
				Message: "Blast not found",
			})
			return
		}
		log.Error().Err(err).Uint("blast_id", id).Msg("GetBlast: Service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Kind:    dto.KindInternal,
			Message: "Failed to load blast",
		})
		return
	}
	ctx.JSON(http.StatusOK, resp)
}
