// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/dealerdrive/adpilot/app/dto"
	"github.com/dealerdrive/adpilot/app/scheduler"
	businessflow "github.com/dealerdrive/adpilot/business_flow"
	"github.com/dealerdrive/adpilot/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// RotationHandlerInterface defines the contract for rotation handlers
type RotationHandlerInterface interface {
	RunCycle(c fiber.Ctx) error
}

// RotationHandler triggers rotation cycles over HTTP, mirroring what the
// scheduler does on its own ticker
type RotationHandler struct {
	rotation  *scheduler.RotationScheduler
	validator *validator.Validate
}

// NewRotationHandler creates a new rotation handler
func NewRotationHandler(rotation *scheduler.RotationScheduler) *RotationHandler {
	return &RotationHandler{
		rotation:  rotation,
		validator: validator.New(),
	}
}

func (h *RotationHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *RotationHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// RunCycle handles a time-triggered rotation request with no required body
func (h *RotationHandler) RunCycle(c fiber.Ctx) error {
	var req dto.RunRotationCycleRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
		}
		if err := h.validator.Struct(&req); err != nil {
			var validationErrors []string
			for _, err := range err.(validator.ValidationErrors) {
				validationErrors = append(validationErrors, getValidationErrorMessage(err))
			}
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
		}
	}

	// Default tick key: hours since epoch, reproducible for a given hour
	tickKey := utils.UTCNow().Unix() / 3600
	if req.TickKey != nil {
		tickKey = *req.TickKey
	}

	report, err := h.rotation.RunCycle(h.createRequestContext(c, "/api/v1/rotation/run"), tickKey)
	if err != nil {
		if errors.Is(err, businessflow.ErrCycleInProgress) {
			return h.ErrorResponse(c, fiber.StatusConflict, "A rotation cycle is already running", "CYCLE_IN_PROGRESS", nil)
		}
		log.Println("Rotation cycle failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Rotation cycle failed", "ROTATION_CYCLE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Rotation cycle completed", toBatchReportResponse(report))
}

func toBatchReportResponse(report *scheduler.BatchReport) dto.RunRotationCycleResponse {
	resp := dto.RunRotationCycleResponse{
		BatchID:      report.BatchID,
		TickKey:      report.TickKey,
		StartedAt:    report.StartedAt,
		FinishedAt:   report.FinishedAt,
		SuccessCount: report.SuccessCount,
		ErrorCount:   report.ErrorCount,
	}
	for _, res := range report.Resources {
		resp.Resources = append(resp.Resources, dto.RemoteResourceDTO{
			Kind:       res.Kind,
			PlatformID: res.PlatformID,
			Name:       res.Name,
			Status:     res.Status,
		})
	}
	for _, e := range report.Errors {
		resp.Errors = append(resp.Errors, dto.BatchErrorDTO{
			StockNumber: e.StockNumber,
			Step:        e.Step,
			Message:     e.Message,
			Transient:   e.Transient,
		})
	}
	for _, in := range report.Insights {
		resp.Insights = append(resp.Insights, dto.CampaignInsightDTO{
			CampaignID:  in.CampaignID,
			Impressions: in.Impressions,
			Clicks:      in.Clicks,
			Spend:       in.Spend,
			Reach:       in.Reach,
		})
	}
	return resp
}

func (h *RotationHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
