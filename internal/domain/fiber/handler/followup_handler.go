package handler

import (
	"github.com/fadilmartias/dealer-feedback/internal/config"
	"github.com/fadilmartias/dealer-feedback/internal/dto"
	"github.com/fadilmartias/dealer-feedback/internal/middleware"
	"github.com/fadilmartias/dealer-feedback/internal/response"
	"github.com/fadilmartias/dealer-feedback/internal/usecase"
	"github.com/fadilmartias/dealer-feedback/internal/util"
	"github.com/gofiber/fiber/v2"
)

type FollowUpHandler struct {
	uc *usecase.FollowUpUsecase
}

func NewFollowUpHandler(uc *usecase.FollowUpUsecase) *FollowUpHandler {
	return &FollowUpHandler{uc: uc}
}

// RegisterRoutes mounts the admin routes only when credentials are configured.
func (h *FollowUpHandler) RegisterRoutes(app *fiber.App, cfg *config.AdminConfig) bool {
	if !cfg.Enabled() {
		return false
	}
	admin := app.Group("/admin", middleware.AdminAuth(cfg))
	admin.Get("/followups", h.List)
	return true
}

func (h *FollowUpHandler) List(c *fiber.Ctx) error {
	page, pageSize := usecase.NormalizePaging(c.QueryInt("page", 1), c.QueryInt("page_size", 20))

	rows, total, err := h.uc.ListFollowUps(c.UserContext(), page, pageSize)
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusServiceUnavailable,
			Message: "Unable to load follow-ups",
		}, err)
	}

	data := make([]dto.FollowUpDTO, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		data = append(data, dto.FollowUpDTO{
			ID:                r.ID,
			CustomerName:      r.CustomerName,
			CustomerPhone:     r.CustomerPhone,
			Vehicle:           r.VehicleLabel(),
			Sentiment:         r.FeedbackSentiment,
			Text:              r.FeedbackText,
			SubmittedAt:       r.FeedbackSubmittedAt,
			AlertTime:         r.AlertTime,
			AlertDispatchedAt: r.AlertDispatchedAt,
		})
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message:    "Success get follow-ups",
		Data:       data,
		Pagination: response.NewPagination(page, pageSize, len(rows), total),
	})
}
