package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"maildesk/internal/models"
	"maildesk/internal/store"
	"maildesk/internal/triage"

	"github.com/labstack/echo/v4"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ProcessEmailHandler ingests one raw inbound email through the triage pipeline
// @Summary Process an inbound email
// @Description Classify, persist and (for urgent emails) auto-respond to one inbound support email
// @Tags emails
// @Accept json
// @Produce json
// @Param request body models.ProcessEmailRequest true "Inbound email"
// @Success 200 {object} models.ProcessEmailResponse
// @Failure 400 {object} models.ProcessEmailResponse
// @Failure 500 {object} models.ProcessEmailResponse
// @Router /api/emails/process [post]
func ProcessEmailHandler(svc *triage.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.ProcessEmailRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.ProcessEmailResponse{
				Success: false,
				Error:   fmt.Sprintf("Invalid request body: %v", err),
			})
		}

		if !emailRegex.MatchString(req.Sender) {
			return c.JSON(http.StatusBadRequest, models.ProcessEmailResponse{
				Success: false,
				Error:   "Invalid sender address. Please provide a valid email address.",
			})
		}
		if req.Subject == "" && req.Body == "" {
			return c.JSON(http.StatusBadRequest, models.ProcessEmailResponse{
				Success: false,
				Error:   "Email must have a subject or a body",
			})
		}

		receivedAt := time.Now().UTC()
		if req.ReceivedAt != nil {
			receivedAt = *req.ReceivedAt
		}

		fmt.Printf("[EMAILS] Processing inbound email from %s\n", req.Sender)

		result, err := svc.ProcessEmail(c.Request().Context(), req.Sender, req.Subject, req.Body, receivedAt)
		if err != nil {
			fmt.Printf("[EMAILS] ERROR: Failed to process email: %v\n", err)
			return c.JSON(http.StatusInternalServerError, models.ProcessEmailResponse{
				Success: false,
				Error:   fmt.Sprintf("Failed to process email: %v", err),
			})
		}

		return c.JSON(http.StatusOK, models.ProcessEmailResponse{
			Success: true,
			Email:   result,
		})
	}
}

// ListEmailsHandler returns the triage queue for the dashboard
// @Summary List triaged emails
// @Description List emails joined with their responses, urgent first then newest first
// @Tags emails
// @Produce json
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Page offset" default(0)
// @Success 200 {object} models.EmailListResponse
// @Failure 500 {object} models.EmailListResponse
// @Router /api/emails [get]
func ListEmailsHandler(svc *triage.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		limit := queryInt(c, "limit", 50)
		offset := queryInt(c, "offset", 0)

		emails, err := svc.ListEmails(c.Request().Context(), limit, offset)
		if err != nil {
			fmt.Printf("[EMAILS] ERROR: Failed to list emails: %v\n", err)
			return c.JSON(http.StatusInternalServerError, models.EmailListResponse{
				Success: false,
				Error:   fmt.Sprintf("Failed to list emails: %v", err),
			})
		}

		return c.JSON(http.StatusOK, models.EmailListResponse{
			Success: true,
			Emails:  emails,
			Count:   len(emails),
		})
	}
}

// GenerateResponseHandler generates (at most once) a response for an email
// @Summary Generate a response for an email
// @Description Return the existing response text, or generate and persist one. Never fails except for unknown emails.
// @Tags emails
// @Produce json
// @Param id path string true "Email id"
// @Success 200 {object} models.GenerateResponseResponse
// @Failure 404 {object} models.GenerateResponseResponse
// @Router /api/emails/{id}/generate [post]
func GenerateResponseHandler(svc *triage.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		emailID := c.Param("id")

		response, err := svc.GenerateResponseForEmail(c.Request().Context(), emailID)
		if err != nil {
			if errors.Is(err, store.ErrEmailNotFound) {
				return c.JSON(http.StatusNotFound, models.GenerateResponseResponse{
					Success: false,
					Error:   "Email not found",
				})
			}
			// The pipeline only surfaces NotFound; anything else is unexpected
			fmt.Printf("[EMAILS] ERROR: Unexpected generation failure: %v\n", err)
			return c.JSON(http.StatusInternalServerError, models.GenerateResponseResponse{
				Success: false,
				Error:   fmt.Sprintf("Failed to generate response: %v", err),
			})
		}

		return c.JSON(http.StatusOK, models.GenerateResponseResponse{
			Success:  true,
			Response: response,
		})
	}
}

// SendResponseHandler finalizes and sends the response for an email
// @Summary Send a response
// @Description Record the final (possibly edited) text and send timestamp for the email's response
// @Tags emails
// @Accept json
// @Produce json
// @Param id path string true "Email id"
// @Param request body models.SendResponseRequest true "Final response text"
// @Success 200 {object} models.SendResponseResponse
// @Failure 400 {object} models.SendResponseResponse
// @Failure 404 {object} models.SendResponseResponse
// @Failure 500 {object} models.SendResponseResponse
// @Router /api/emails/{id}/send [post]
func SendResponseHandler(svc *triage.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		emailID := c.Param("id")

		var req models.SendResponseRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.SendResponseResponse{
				Success: false,
				Error:   fmt.Sprintf("Invalid request body: %v", err),
			})
		}
		if req.FinalResponse == "" {
			return c.JSON(http.StatusBadRequest, models.SendResponseResponse{
				Success: false,
				Error:   "Final response text cannot be empty",
			})
		}

		response, err := svc.SendResponse(c.Request().Context(), emailID, req.FinalResponse)
		if err != nil {
			if errors.Is(err, store.ErrResponseNotFound) {
				return c.JSON(http.StatusNotFound, models.SendResponseResponse{
					Success: false,
					Error:   "No response exists for this email",
				})
			}
			fmt.Printf("[EMAILS] ERROR: Failed to send response: %v\n", err)
			return c.JSON(http.StatusInternalServerError, models.SendResponseResponse{
				Success: false,
				Error:   fmt.Sprintf("Failed to send response: %v", err),
			})
		}

		fmt.Printf("[EMAILS] ✅ Response for email %s finalized (edited=%v)\n", emailID, response.IsEdited)

		return c.JSON(http.StatusOK, models.SendResponseResponse{
			Success:  true,
			Response: response,
		})
	}
}

// StatsHandler returns aggregate dashboard stats
// @Summary Get dashboard stats
// @Description Aggregate email and response counts for the dashboard cards
// @Tags stats
// @Produce json
// @Success 200 {object} models.StatsResponse
// @Failure 500 {object} models.StatsResponse
// @Router /api/stats [get]
func StatsHandler(svc *triage.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		stats, err := svc.Stats(c.Request().Context())
		if err != nil {
			fmt.Printf("[STATS] ERROR: Failed to aggregate stats: %v\n", err)
			return c.JSON(http.StatusInternalServerError, models.StatsResponse{
				Success: false,
				Error:   fmt.Sprintf("Failed to get stats: %v", err),
			})
		}

		return c.JSON(http.StatusOK, models.StatsResponse{
			Success: true,
			Stats:   stats,
		})
	}
}

// queryInt parses an integer query parameter with a default
func queryInt(c echo.Context, name string, defaultValue int) int {
	if value := c.QueryParam(name); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return defaultValue
}
