// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/dealerdrive/adpilot/app/dto"
	businessflow "github.com/dealerdrive/adpilot/business_flow"
	"github.com/dealerdrive/adpilot/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// CampaignHandlerInterface defines the contract for campaign handlers
type CampaignHandlerInterface interface {
	OrchestrateCampaign(c fiber.Ctx) error
}

// CampaignHandler handles campaign orchestration HTTP requests
type CampaignHandler struct {
	campaignFlow businessflow.CampaignFlow
	validator    *validator.Validate
}

// NewCampaignHandler creates a new campaign handler
func NewCampaignHandler(campaignFlow businessflow.CampaignFlow) *CampaignHandler {
	return &CampaignHandler{
		campaignFlow: campaignFlow,
		validator:    validator.New(),
	}
}

func (h *CampaignHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *CampaignHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// OrchestrateCampaign handles an interactive campaign orchestration request
func (h *CampaignHandler) OrchestrateCampaign(c fiber.Ctx) error {
	var req dto.OrchestrateCampaignRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	// Validate request
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	// Get client information
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.RequestID = c.Get("X-Request-ID")

	// Get authenticated customer ID from context
	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}
	req.CustomerID = customerID

	// Call business logic with proper context
	result := h.campaignFlow.OrchestrateCampaign(h.createRequestContext(c, "/api/v1/campaigns/orchestrate"), toFlowRequest(&req), metadata)
	resp := toOrchestrationResponse(result)

	if !result.Success {
		switch {
		case errors.Is(result.Err, businessflow.ErrCustomerNotFound):
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer not found", "CUSTOMER_NOT_FOUND", resp)
		case errors.Is(result.Err, businessflow.ErrAccountInactive):
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer account is inactive", "ACCOUNT_INACTIVE", resp)
		case businessflow.IsValidationError(result.Err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Orchestration rejected", "ORCHESTRATION_REJECTED", resp)
		}
		log.Println("Campaign orchestration failed", result.Err)
		return h.ErrorResponse(c, fiber.StatusBadGateway, "Campaign orchestration failed", "ORCHESTRATION_FAILED", resp)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Campaign orchestrated successfully", resp)
}

func toFlowRequest(req *dto.OrchestrateCampaignRequest) *businessflow.CampaignRequest {
	out := &businessflow.CampaignRequest{
		CustomerID:   req.CustomerID,
		AdAccountID:  req.AdAccountID,
		PageID:       req.PageID,
		CampaignName: req.CampaignName,
		AdSetName:    req.AdSetName,
		AdName:       req.AdName,
		BudgetCents:  req.BudgetCents,
		DurationDays: req.DurationDays,
		Targeting: businessflow.TargetingSpec{
			InterestKeywords: req.Targeting.InterestKeywords,
			AgeRange: businessflow.AgeRange{
				Min: req.Targeting.AgeRange.Min,
				Max: req.Targeting.AgeRange.Max,
			},
		},
		Creative: businessflow.CreativeSpec{
			Headline:        req.Creative.Headline,
			Body:            req.Creative.Body,
			CallToAction:    req.Creative.CallToAction,
			DestinationType: req.Creative.DestinationType,
		},
	}
	for _, loc := range req.Targeting.Locations {
		out.Targeting.Locations = append(out.Targeting.Locations, businessflow.LocationTerm{
			Type: loc.Type,
			Name: loc.Name,
		})
	}
	return out
}

func toOrchestrationResponse(result *businessflow.OrchestrationResult) dto.OrchestrateCampaignResponse {
	resp := dto.OrchestrateCampaignResponse{
		Success:    result.Success,
		FailedStep: result.FailedStep,
	}
	if result.Err != nil {
		resp.Error = result.Err.Error()
	}
	for _, res := range result.Resources {
		resp.Resources = append(resp.Resources, dto.RemoteResourceDTO{
			Kind:       res.Kind,
			PlatformID: res.PlatformID,
			Name:       res.Name,
			Status:     res.Status,
		})
	}
	for _, entry := range result.Progress.Entries {
		resp.Progress = append(resp.Progress, dto.ProgressEntryDTO{
			Step:    entry.Step,
			Success: entry.Success,
			Detail:  entry.Detail,
			At:      entry.At,
		})
	}
	return resp
}

func (h *CampaignHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 2*time.Minute)
}

func (h *CampaignHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
