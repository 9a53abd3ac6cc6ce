package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	extractionCommands "github.com/felixgeelhaar/subslayer/internal/extraction/application/commands"
	extraction "github.com/felixgeelhaar/subslayer/internal/extraction/domain"
	notificationApp "github.com/felixgeelhaar/subslayer/internal/notification/application"
	"github.com/felixgeelhaar/subslayer/internal/tracking/application/commands"
	"github.com/felixgeelhaar/subslayer/internal/tracking/application/queries"
	tracking "github.com/felixgeelhaar/subslayer/internal/tracking/domain"
)

const maxBodyBytes = 256 << 10

var validate = validator.New()

type parseRequest struct {
	EmailText string `json:"emailText"`
}

type parseResponse struct {
	Success bool                           `json:"success"`
	Data    *extraction.ParsedSubscription `json:"data"`
}

type createRequest struct {
	ServiceName     string          `json:"service_name" validate:"required"`
	Cost            decimal.Decimal `json:"cost"`
	Currency        string          `json:"currency" validate:"omitempty,len=3"`
	RenewalDate     string          `json:"renewal_date" validate:"required,datetime=2006-01-02"`
	CancellationURL *string         `json:"cancellation_url"`
	WebsiteURL      *string         `json:"website_url"`
}

type cancelRequest struct {
	SubscriptionID string `json:"subscriptionId" validate:"required,uuid"`
}

type renewalResponse struct {
	Message string `json:"message"`
	*notificationApp.RunResult
}

type cancelResponse struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	SubscriptionID  string `json:"subscriptionId"`
	CancellationURL string `json:"cancellation_url"`
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Email text is required")
		return
	}

	result, err := s.handlers.Parse.Handle(r.Context(), extractionCommands.ParseEmailCommand{EmailText: req.EmailText})
	if err != nil {
		status, message := parseFailure(err)
		if status >= http.StatusInternalServerError {
			s.logger.ErrorContext(r.Context(), "parse failed", "reason", extraction.Reason(err), "error", err)
		}
		writeError(w, status, message)
		return
	}

	writeJSON(w, http.StatusOK, parseResponse{Success: true, Data: result.Subscription})
}

// parseFailure maps an extraction failure to an HTTP status and message.
func parseFailure(err error) (int, string) {
	switch {
	case errors.Is(err, extraction.ErrEmptyInput):
		return http.StatusBadRequest, "Email text is required"
	case errors.Is(err, extraction.ErrConfigurationMissing):
		return http.StatusInternalServerError, "Extraction provider is not configured"
	case errors.Is(err, extraction.ErrUpstreamUnavailable):
		var upstream *extraction.UpstreamError
		if errors.As(err, &upstream) && upstream.StatusCode != 0 {
			return http.StatusInternalServerError, fmt.Sprintf("AI API error: %d", upstream.StatusCode)
		}
		return http.StatusInternalServerError, "AI API is unavailable"
	case errors.Is(err, extraction.ErrEmptyCompletion):
		return http.StatusInternalServerError, "No response from AI"
	case errors.Is(err, extraction.ErrIncompleteExtraction):
		return http.StatusUnprocessableEntity, "Could not extract all fields from email"
	default:
		return http.StatusInternalServerError, "Failed to parse email. Please try again."
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	owner, _ := ownerFromContext(r.Context())
	subs, err := s.handlers.List.Handle(r.Context(), queries.ListSubscriptionsQuery{UserID: owner})
	if err != nil {
		s.logger.ErrorContext(r.Context(), "list subscriptions failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load subscriptions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": subs})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	owner, _ := ownerFromContext(r.Context())

	var req createRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	cmd := commands.CreateSubscriptionCommand{
		UserID:      owner,
		ServiceName: req.ServiceName,
		Cost:        req.Cost,
		Currency:    req.Currency,
		RenewalDate: req.RenewalDate,
	}
	if req.CancellationURL != nil {
		cmd.CancellationURL = *req.CancellationURL
	}
	if req.WebsiteURL != nil {
		cmd.WebsiteURL = *req.WebsiteURL
	}

	result, err := s.handlers.Create.Handle(r.Context(), cmd)
	if err != nil {
		if errors.Is(err, tracking.ErrInvalidSubscription) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.ErrorContext(r.Context(), "create subscription failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to save subscription")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"data":    queries.ToDTO(result.Subscription, time.Now().UTC()),
	})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	owner, _ := ownerFromContext(r.Context())

	var req cancelRequest
	if err := decodeBody(r, &req); err != nil || validate.Struct(req) != nil {
		writeError(w, http.StatusBadRequest, "Subscription ID is required")
		return
	}
	id := uuid.MustParse(req.SubscriptionID)

	result, err := s.handlers.Cancel.Handle(r.Context(), commands.CancelSubscriptionCommand{UserID: owner, SubscriptionID: id})
	switch {
	case errors.Is(err, tracking.ErrNotFound):
		writeError(w, http.StatusNotFound, "Subscription not found")
		return
	case errors.Is(err, tracking.ErrAlreadyCancelled):
		writeError(w, http.StatusConflict, "Subscription already cancelled")
		return
	case err != nil:
		s.logger.ErrorContext(r.Context(), "cancel subscription failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to cancel subscription")
		return
	}

	writeJSON(w, http.StatusOK, cancelResponse{
		Success:         true,
		Message:         "Subscription cancelled successfully",
		SubscriptionID:  result.SubscriptionID.String(),
		CancellationURL: result.CancellationURL,
	})
}

func (s *Server) handleSpending(w http.ResponseWriter, r *http.Request) {
	owner, _ := ownerFromContext(r.Context())
	summary, err := s.handlers.Spending.Handle(r.Context(), queries.SpendingSummaryQuery{UserID: owner})
	if err != nil {
		s.logger.ErrorContext(r.Context(), "spending summary failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to compute spending")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": summary})
}

func (s *Server) handleCheckRenewals(w http.ResponseWriter, r *http.Request) {
	result, err := s.handlers.Renewals.Run(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "renewal check failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Database error"})
		return
	}

	message := "Renewal check complete"
	if result.SubscriptionsFound == 0 {
		message = "No upcoming renewals"
	}
	writeJSON(w, http.StatusOK, renewalResponse{Message: message, RunResult: result})
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request body"
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return "Invalid fields: " + strings.Join(fields, ", ")
}
