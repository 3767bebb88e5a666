package handler

import (
	"errors"
	"time"

	"github.com/fadilmartias/dealer-feedback/internal/dto"
	"github.com/fadilmartias/dealer-feedback/internal/middleware"
	"github.com/fadilmartias/dealer-feedback/internal/usecase"
	"github.com/fadilmartias/dealer-feedback/internal/util"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type FeedbackHandler struct {
	uc     *usecase.FeedbackUsecase
	logger *zap.Logger
}

func NewFeedbackHandler(uc *usecase.FeedbackUsecase, logger *zap.Logger) *FeedbackHandler {
	return &FeedbackHandler{uc: uc, logger: logger.Named("http")}
}

func (h *FeedbackHandler) RegisterRoutes(app *fiber.App) {
	app.Get("/feedback/:token?", h.Show)
	app.Post("/feedback/:token/sentiment", middleware.RateLimiter(10, time.Minute), h.SelectSentiment)
	app.Post("/feedback/:token/submit", middleware.RateLimiter(10, time.Minute), h.Submit)
}

// Show validates the link and returns the rating step.
func (h *FeedbackHandler) Show(c *fiber.Ctx) error {
	s := h.start(c)
	if fe := s.Err(); fe != nil {
		return h.errorView(c, s, fe)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Feedback form ready",
		Data:    h.view(s),
	})
}

func (h *FeedbackHandler) SelectSentiment(c *fiber.Ctx) error {
	var req dto.SentimentRequest
	if err := c.BodyParser(&req); err != nil {
		return h.badRequest(c, err)
	}
	sentiment, err := usecase.ParseSentiment(req.Sentiment)
	if err != nil {
		return h.transitionError(c, nil, err)
	}

	s := h.start(c)
	if fe := s.Err(); fe != nil {
		return h.errorView(c, s, fe)
	}
	if err := s.SelectSentiment(c.UserContext(), sentiment); err != nil {
		return h.transitionError(c, s, err)
	}

	message := "Sentiment recorded"
	if s.State() == usecase.StateRedirected {
		message = "Thank you! Redirecting to review page"
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: message,
		Data:    h.view(s),
	})
}

// Submit saves written feedback for a neutral or negative rating.
func (h *FeedbackHandler) Submit(c *fiber.Ctx) error {
	var req dto.SubmitFeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return h.badRequest(c, err)
	}
	sentiment, err := usecase.ParseSentiment(req.Sentiment)
	if err != nil {
		return h.transitionError(c, nil, err)
	}
	if sentiment == usecase.SentimentPositive {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:      fiber.StatusBadRequest,
			ErrorCode: string(usecase.ErrCodeInvalidSentiment),
			Message:   "Positive ratings do not take written feedback",
		})
	}

	s := h.start(c)
	if fe := s.Err(); fe != nil {
		return h.errorView(c, s, fe)
	}
	if err := s.SelectSentiment(c.UserContext(), sentiment); err != nil {
		return h.transitionError(c, s, err)
	}
	if err := s.SubmitFeedback(c.UserContext(), req.Text); err != nil {
		return h.transitionError(c, s, err)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusCreated,
		Message: "Feedback submitted",
		Data:    h.view(s),
	})
}

func (h *FeedbackHandler) start(c *fiber.Ctx) *usecase.Session {
	return h.uc.Start(c.UserContext(), c.Params("token"), string(c.Request().URI().QueryString()))
}

func (h *FeedbackHandler) view(s *usecase.Session) dto.FeedbackViewDTO {
	v := dto.FeedbackViewDTO{
		State:          string(s.State()),
		Token:          s.Token(),
		Greeting:       s.Greeting(),
		Sentiment:      string(s.Sentiment()),
		Prompt:         s.Prompt(),
		Text:           s.Text(),
		Confirmation:   s.Confirmation(),
		RedirectURL:    s.RedirectURL(),
		ManagerContact: h.uc.ManagerContact(),
	}
	if r := s.Record(); r != nil {
		v.CustomerName = r.CustomerName
		v.Vehicle = r.VehicleLabel()
	}
	if fe := s.Err(); fe != nil {
		v.Notice = notice(fe)
	} else if w := s.Warning(); w != nil {
		v.Notice = &dto.NoticeDTO{Code: string(w.Code), Message: w.Message, Tone: "warning"}
	}
	return v
}

func (h *FeedbackHandler) errorView(c *fiber.Ctx, s *usecase.Session, fe *usecase.FeedbackError) error {
	var data any
	if s != nil {
		data = h.view(s)
	}
	if fe.Err != nil {
		h.logger.Warn("feedback request failed",
			zap.String("code", string(fe.Code)),
			zap.String("path", c.Path()),
			zap.Error(fe.Err),
		)
	}
	return util.ErrorResponse(c, util.ErrorResponseFormat{
		Code:      statusForCode(fe.Code),
		ErrorCode: string(fe.Code),
		Message:   fe.Message,
		Data:      data,
	}, fe.Err)
}

func (h *FeedbackHandler) transitionError(c *fiber.Ctx, s *usecase.Session, err error) error {
	var fe *usecase.FeedbackError
	if errors.As(err, &fe) {
		return h.errorView(c, s, fe)
	}
	return util.ErrorResponse(c, util.ErrorResponseFormat{
		Message: "Something went wrong",
	}, err)
}

func (h *FeedbackHandler) badRequest(c *fiber.Ctx, err error) error {
	return util.ErrorResponse(c, util.ErrorResponseFormat{
		Code:    fiber.StatusBadRequest,
		Message: "Invalid request body",
	}, err)
}

func notice(fe *usecase.FeedbackError) *dto.NoticeDTO {
	tone := "error"
	switch {
	case fe.Code == usecase.ErrCodeAlreadySubmitted:
		tone = "info"
	case fe.Retryable:
		tone = "warning"
	}
	return &dto.NoticeDTO{Code: string(fe.Code), Message: fe.Message, Tone: tone}
}

func statusForCode(code usecase.ErrorCode) int {
	switch code {
	case usecase.ErrCodeMissingToken, usecase.ErrCodeInvalidSentiment, usecase.ErrCodeInvalidTransition:
		return fiber.StatusBadRequest
	case usecase.ErrCodeInvalidToken:
		return fiber.StatusNotFound
	case usecase.ErrCodeAlreadySubmitted, usecase.ErrCodeSubmissionInFlight:
		return fiber.StatusConflict
	case usecase.ErrCodeEmptyFeedback:
		return fiber.StatusUnprocessableEntity
	case usecase.ErrCodeLookupFailed, usecase.ErrCodePersistenceFailed:
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}
