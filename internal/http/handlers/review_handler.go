package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "nittanymarket/internal/log"
	"nittanymarket/internal/services"
	"nittanymarket/internal/validate"
)

type ReviewHandler struct {
	Reviews *services.ReviewService
}

func (h *ReviewHandler) Submit(c *fiber.Ctx) error {
	orderID, ok := validate.ID(c.FormValue("order_id"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "order_id"})
		return notFound(c, "Order not found")
	}
	back := orderPath(orderID)
	rating, ok := validate.Rating(c.FormValue("rating"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "rating"})
		return redirectWithFlash(c, back, services.ErrInvalidRating.Error()+".")
	}
	body, ok := validate.Text(c.FormValue("review_text"), validate.MaxReview)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "review_text"})
		return redirectWithFlash(c, back, "Reviews are limited to 1000 characters.")
	}

	u := currentUser(c)
	created, err := h.Reviews.Submit(c.UserContext(), orderID, u.Email, rating, body)
	switch {
	case errors.Is(err, services.ErrNotFound):
		return notFound(c, "Order not found")
	case errors.Is(err, services.ErrUnauthorized):
		applog.Security(c, "access.denied.review", map[string]any{"order_id": orderID, "email": u.Email})
		return notFound(c, "Order not found")
	case errors.Is(err, services.ErrInvalidRating), errors.Is(err, services.ErrInvalidInput):
		return redirectWithFlash(c, back, err.Error())
	case err != nil:
		applog.Error(c, "review.submit", err, map[string]any{"order_id": orderID})
		return serverError(c, "Could not save your review.")
	}

	applog.Audit(c, "review.submit", map[string]any{"order_id": orderID, "rating": rating, "created": created})
	msg := "Review updated."
	if created {
		msg = "Thanks for your review."
	}
	return redirectWithFlash(c, back, msg)
}
