// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/dealerdrive/adpilot/app/dto"
	businessflow "github.com/dealerdrive/adpilot/business_flow"
	"github.com/dealerdrive/adpilot/utils"
	"github.com/gofiber/fiber/v3"
)

// ActivityHandlerInterface defines the contract for activity handlers
type ActivityHandlerInterface interface {
	ListActivity(c fiber.Ctx) error
	ExportActivity(c fiber.Ctx) error
}

// ActivityHandler serves the per-date activity records written by the recorder
type ActivityHandler struct {
	reportFlow businessflow.ActivityReportFlow
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(reportFlow businessflow.ActivityReportFlow) *ActivityHandler {
	return &ActivityHandler{reportFlow: reportFlow}
}

func (h *ActivityHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *ActivityHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ListActivity returns activity records for a date range (default: last 30 days)
func (h *ActivityHandler) ListActivity(c fiber.Ctx) error {
	from, to, err := parseActivityRange(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid date range", "INVALID_DATE_RANGE", err.Error())
	}

	records, err := h.reportFlow.ListActivity(h.createRequestContext(c, "/api/v1/activity"), from, to)
	if err != nil {
		if businessflow.IsValidationError(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid date range", "INVALID_DATE_RANGE", err.Error())
		}
		log.Println("List activity failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list activity records", "LIST_ACTIVITY_FAILED", nil)
	}

	resp := dto.ListActivityResponse{Total: int64(len(records))}
	for _, rec := range records {
		resp.Items = append(resp.Items, dto.ActivityRecordResponse{
			ID:           rec.ID,
			RecordDate:   rec.RecordDate,
			BatchID:      rec.BatchID,
			SuccessCount: rec.SuccessCount,
			ErrorCount:   rec.ErrorCount,
			Payload:      rec.Payload,
		})
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Activity records retrieved successfully", resp)
}

// ExportActivity streams the date range as an xlsx workbook
func (h *ActivityHandler) ExportActivity(c fiber.Ctx) error {
	from, to, err := parseActivityRange(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid date range", "INVALID_DATE_RANGE", err.Error())
	}

	data, err := h.reportFlow.ExportActivityXLSX(h.createRequestContext(c, "/api/v1/activity/export"), from, to)
	if err != nil {
		if businessflow.IsValidationError(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid date range", "INVALID_DATE_RANGE", err.Error())
		}
		log.Println("Export activity failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to export activity records", "EXPORT_ACTIVITY_FAILED", nil)
	}

	filename := fmt.Sprintf("activity_%s_%s.xlsx", from.Format("2006-01-02"), to.Format("2006-01-02"))
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	return c.Send(data)
}

// parseActivityRange reads date_from and date_to query params; the range
// defaults to the trailing 30 days
func parseActivityRange(c fiber.Ctx) (time.Time, time.Time, error) {
	to := utils.UTCToday()
	from := to.AddDate(0, 0, -30)

	if v := c.Query("date_from"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("date_from: %w", err)
		}
		from = parsed
	}
	if v := c.Query("date_to"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("date_to: %w", err)
		}
		to = parsed
	}
	return from, to, nil
}

func (h *ActivityHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
