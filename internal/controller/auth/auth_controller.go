package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/formpilot/formpilot/internal/dto"
	"github.com/formpilot/formpilot/internal/service"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

// Login godoc
// @Summary Log in as an admin
// @Description Exchanges email and password for a signed JWT.
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body dto.LoginRequestDTO true "Login credentials"
// @Success 200 {object} dto.LoginResponseDTO "Token and user profile"
// @Failure 400 {object} dto.ErrorResponse "Malformed request body"
// @Failure 401 {object} dto.ErrorResponse "Wrong email or password"
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Login: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Kind:    dto.KindValidation,
			Message: "Invalid request body",
			Details: []string{err.Error()},
		})
		return
	}

	resp, err := c.authService.Login(req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{
				Kind:    dto.KindUnauthorized,
				Message: "Invalid email or password",
			})
			return
		}
		log.Error().Err(err).Msg("Login: Service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Kind:    dto.KindInternal,
			Message: "Failed to log in",
		})
		return
	}
	ctx.JSON(http.StatusOK, resp)
}
