package handlers

import (
	"fmt"
	"net/http"
	"os"

	"maildesk/internal/emails"
	"maildesk/internal/triage"

	"github.com/labstack/echo/v4"
)

// ImportEmailsResponse represents the response from a bulk email import
type ImportEmailsResponse struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	EmailsProcessed int    `json:"emails_processed"`
	EmailsFailed    int    `json:"emails_failed,omitempty"`
	Error           string `json:"error,omitempty"`
}

// ImportEmailsHandler triages every .eml file found under the import path
// @Summary Import emails from storage
// @Description Parse .eml files from the configured import directory and run each through the triage pipeline
// @Tags admin
// @Produce json
// @Success 200 {object} ImportEmailsResponse
// @Failure 500 {object} ImportEmailsResponse
// @Router /api/admin/import-emails [post]
func ImportEmailsHandler(svc *triage.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		fmt.Println("[EMAIL_IMPORT] Starting email import from storage...")

		importPath := os.Getenv("EMAIL_IMPORT_PATH")
		if importPath == "" {
			importPath = "/emails"
		}

		if _, err := os.Stat(importPath); os.IsNotExist(err) {
			fmt.Printf("[EMAIL_IMPORT] Email directory not found: %s\n", importPath)
			return c.JSON(http.StatusInternalServerError, ImportEmailsResponse{
				Success: false,
				Message: "Email storage directory not found",
				Error:   fmt.Sprintf("Directory %s does not exist", importPath),
			})
		}

		parsed, err := emails.ParseDirectory(importPath)
		if err != nil {
			fmt.Printf("[EMAIL_IMPORT] Error parsing EML files: %v\n", err)
			return c.JSON(http.StatusInternalServerError, ImportEmailsResponse{
				Success: false,
				Message: "Failed to parse email files",
				Error:   err.Error(),
			})
		}

		processed := 0
		failed := 0
		for i := range parsed {
			inbound := parsed[i]
			if _, err := svc.ProcessEmail(c.Request().Context(), inbound.Sender, inbound.Subject, inbound.Body, inbound.ReceivedAt); err != nil {
				fmt.Printf("[EMAIL_IMPORT] Warning: Failed to process email %d: %v\n", i+1, err)
				failed++
				continue
			}
			processed++
		}

		fmt.Printf("[EMAIL_IMPORT] ✅ Import complete: %d processed, %d failed\n", processed, failed)

		return c.JSON(http.StatusOK, ImportEmailsResponse{
			Success:         true,
			Message:         "Email import completed",
			EmailsProcessed: processed,
			EmailsFailed:    failed,
		})
	}
}
