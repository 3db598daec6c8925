package handlers

import (
	"fmt"
	"net/http"

	"maildesk/internal/auth"
	"maildesk/internal/models"

	"github.com/labstack/echo/v4"
)

// LoginHandler authenticates an admin and returns a bearer token
// @Summary Admin login
// @Description Authenticate with admin credentials and receive a bearer token for admin routes
// @Tags admin
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Credentials"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} models.LoginResponse
// @Failure 401 {object} models.LoginResponse
// @Router /api/admin/login [post]
func LoginHandler(manager *auth.Manager) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.LoginRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.LoginResponse{
				Success: false,
				Error:   fmt.Sprintf("Invalid request body: %v", err),
			})
		}

		token, err := manager.Authenticate(req.Username, req.Password)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, models.LoginResponse{
				Success: false,
				Error:   "Invalid credentials",
			})
		}

		return c.JSON(http.StatusOK, models.LoginResponse{
			Success: true,
			Token:   token,
		})
	}
}
