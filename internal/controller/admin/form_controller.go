package admin

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/formpilot/formpilot/config"
	"github.com/formpilot/formpilot/internal/dto"
	"github.com/formpilot/formpilot/internal/middleware"
	"github.com/formpilot/formpilot/internal/model"
	"github.com/formpilot/formpilot/internal/service"
)

type FormController struct {
	formService service.FormService
	authService service.AuthService
	cfg         *config.Config
}

func NewFormController(formService service.FormService, authService service.AuthService, cfg *config.Config) *FormController {
	return &FormController{formService: formService, authService: authService, cfg: cfg}
}

// currentUser resolves the authenticated admin from the request context.
func currentUser(ctx *gin.Context, authService service.AuthService) (*model.User, bool) {
	id, ok := middleware.UserID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Kind:    dto.KindUnauthorized,
			Message: "Not authenticated",
		})
		return nil, false
	}
	user, err := authService.GetUser(id)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Kind:    dto.KindUnauthorized,
			Message: "Unknown user",
		})
		return nil, false
	}
	return user, true
}

func parseID(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Kind:    dto.KindValidation,
			Message: "Invalid id",
		})
		return 0, false
	}
	return uint(id), true
}

func writeFormError(ctx *gin.Context, err error, action string) {
	if ve, ok := service.AsValidationError(err); ok {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Kind:    dto.KindValidation,
			Message: "Form definition is invalid",
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
	case errors.Is(err, service.ErrForbidden):
		ctx.JSON(http.StatusForbidden, dto.ErrorResponse{
			Kind:    dto.KindUnauthorized,
			Message: "Not allowed to manage this form",
		})
	default:
		log.Error().Err(err).Str("action", action).Msg("Form admin: Service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Kind:    dto.KindInternal,
			Message: fmt.Sprintf("Failed to %s form", action),
		})
	}
}

// CreateForm godoc
// @Summary (Admin) Create a form
// @Tags Admin - Forms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param form body dto.FormCreateDTO true "Form definition"
// @Success 201 {object} dto.FormResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid form definition"
// @Router /admin/forms [post]
func (c *FormController) CreateForm(ctx *gin.Context) {
	user, ok := currentUser(ctx, c.authService)
	if !ok {
		return
	}

	var req dto.FormCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("CreateForm: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Kind:    dto.KindValidation,
			Message: "Invalid request body",
			Details: []string{err.Error()},
		})
		return
	}

	resp, err := c.formService.Create(user.ID, req)
	if err != nil {
		writeFormError(ctx, err, "create")
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// ListForms godoc
// @Summary (Admin) List all forms
// @Tags Admin - Forms
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.FormSummaryDTO
// @Router /admin/forms [get]
func (c *FormController) ListForms(ctx *gin.Context) {
	if _, ok := currentUser(ctx, c.authService); !ok {
		return
	}
	forms, err := c.formService.List()
	if err != nil {
		writeFormError(ctx, err, "list")
		return
	}
	ctx.JSON(http.StatusOK, forms)
}

// GetForm godoc
// @Summary (Admin) Get a form with its schema
// @Tags Admin - Forms
// @Produce json
// @Security BearerAuth
// @Param id path int true "Form ID"
// @Success 200 {object} dto.FormResponseDTO
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/forms/{id} [get]
func (c *FormController) GetForm(ctx *gin.Context) {
	if _, ok := currentUser(ctx, c.authService); !ok {
		return
	}
	id, ok := parseID(ctx)
	if !ok {
		return
	}
	resp, err := c.formService.Get(id)
	if err != nil {
		writeFormError(ctx, err, "load")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// UpdateForm godoc
// @Summary (Admin) Replace a form definition
// @Tags Admin - Forms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Form ID"
// @Param form body dto.FormUpdateDTO true "New form definition"
// @Success 200 {object} dto.FormResponseDTO
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/forms/{id} [put]
func (c *FormController) UpdateForm(ctx *gin.Context) {
	user, ok := currentUser(ctx, c.authService)
	if !ok {
		return
	}
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	var req dto.FormUpdateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("UpdateForm: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Kind:    dto.KindValidation,
			Message: "Invalid request body",
			Details: []string{err.Error()},
		})
		return
	}

	resp, err := c.formService.Update(user, id, req)
	if err != nil {
		writeFormError(ctx, err, "update")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// DeleteForm godoc
// @Summary (Admin) Delete a form
// @Tags Admin - Forms
// @Produce json
// @Security BearerAuth
// @Param id path int true "Form ID"
// @Success 204 "Deleted"
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/forms/{id} [delete]
func (c *FormController) DeleteForm(ctx *gin.Context) {
	user, ok := currentUser(ctx, c.authService)
	if !ok {
		return
	}
	id, ok := parseID(ctx)
	if !ok {
		return
	}
	if err := c.formService.Delete(user, id); err != nil {
		writeFormError(ctx, err, "delete")
		return
	}
	ctx.Status(http.StatusNoContent)
}

// SetDisplayed godoc
// @Summary (Admin) Publish a form for public display
// @Description Marks this form as the displayed one and unmarks every other.
// @Tags Admin - Forms
// @Produce json
// @Security BearerAuth
// @Param id path int true "Form ID"
// @Success 200 {object} dto.FormResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Form is inactive"
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/forms/{id}/display [put]
func (c *FormController) SetDisplayed(ctx *gin.Context) {
	user, ok := currentUser(ctx, c.authService)
	if !ok {
		return
	}
	id, ok := parseID(ctx)
	if !ok {
		return
	}
	resp, err := c.formService.SetDisplayed(user, id)
	if err != nil {
		writeFormError(ctx, err, "display")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// UploadBanner godoc
// @Summary (Admin) Upload a banner image for a form
// @Tags Admin - Forms
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Form ID"
// @Param banner formData file true "Banner image (png, jpeg, gif, webp)"
// @Success 200 {object} dto.FormResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Missing file or unsupported type"
// @Router /admin/forms/{id}/banner [post]
func (c *FormController) UploadBanner(ctx *gin.Context) {
	user, ok := currentUser(ctx, c.authService)
	if !ok {
		return
	}
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	fileHeader, err := ctx.FormFile("banner")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Kind:    dto.KindValidation,
			Message: "Missing banner file",
		})
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Kind:    dto.KindValidation,
			Message: "Unreadable banner file",
		})
		return
	}
	defer src.Close()

	// Sniff the real content type rather than trusting the extension.
	head := make([]byte, 512)
	n, _ := io.ReadFull(src, head)
	contentType := http.DetectContentType(head[:n])
	ext, ok := imageExt(contentType)
	if !ok {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Kind:    dto.KindValidation,
			Message: fmt.Sprintf("Unsupported banner type %s", contentType),
		})
		return
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Kind:    dto.KindInternal,
			Message: "Failed to read banner file",
		})
		return
	}

	if err := os.MkdirAll(c.cfg.Upload.Dir, 0o755); err != nil {
		log.Error().Err(err).Msg("UploadBanner: Failed to create upload dir")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Kind:    dto.KindInternal,
			Message: "Failed to store banner",
		})
		return
	}

	name := uuid.NewString() + ext
	dstPath := filepath.Join(c.cfg.Upload.Dir, name)
	dst, err := os.Create(dstPath)
	if err != nil {
		log.Error().Err(err).Str("path", dstPath).Msg("UploadBanner: Failed to create file")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Kind:    dto.KindInternal,
			Message: "Failed to store banner",
		})
		return
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		log.Error().Err(err).Str("path", dstPath).Msg("UploadBanner: Failed to write file")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Kind:    dto.KindInternal,
			Message: "Failed to store banner",
		})
		return
	}

	resp, err := c.formService.SetBanner(user, id, "/uploads/"+name)
	if err != nil {
		writeFormError(ctx, err, "update")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

func imageExt(contentType string) (string, bool) {
	switch contentType {
	case "image/png":
		return ".png", true
	case "image/jpeg":
		return ".jpg", true
	case "image/gif":
		return ".gif", true
	case "image/webp":
		return ".webp", true
	default:
		return "", false
	}
}
