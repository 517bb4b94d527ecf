package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "nittanymarket/internal/log"
	"nittanymarket/internal/services"
	"nittanymarket/internal/validate"
)

type PaymentHandler struct {
	Payments *services.PaymentService
}

const paymentsTab = "/buyer?tab=profile"

func (h *PaymentHandler) New(c *fiber.Ctx) error {
	return render(c, "payment_form", fiber.Map{"New": true})
}

func (h *PaymentHandler) Create(c *fiber.Ctx) error {
	card, field := parseCard(c, true)
	if field != "" {
		applog.Security(c, "validation.fail", map[string]any{"field": field, "form": "payment"})
		return c.Status(fiber.StatusBadRequest).Render("payment_form", withUser(c, fiber.Map{
			"New": true, "Err": "Please check the " + field + " field.",
		}))
	}
	u := currentUser(c)
	id, err := h.Payments.Add(c.UserContext(), u.Email, card)
	if errors.Is(err, services.ErrDuplicateCard) {
		return c.Status(fiber.StatusBadRequest).Render("payment_form", withUser(c, fiber.Map{
			"New": true, "Err": "That card is already registered.",
		}))
	}
	if err != nil {
		applog.Error(c, "payment.add", err, nil)
		return serverError(c, "Could not save the card.")
	}
	applog.Audit(c, "payment.add", map[string]any{"email": u.Email, "payment_id": id})
	return redirectWithFlash(c, paymentsTab, "Card added.")
}

func (h *PaymentHandler) EditForm(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "Card not found")
	}
	p, err := h.Payments.Get(c.UserContext(), id, currentUser(c).Email)
	if errors.Is(err, services.ErrNotFound) {
		return notFound(c, "Card not found")
	}
	if err != nil {
		applog.Error(c, "payment.load", err, nil)
		return serverError(c, "Could not load the card.")
	}
	return render(c, "payment_form", fiber.Map{"Card": p})
}

func (h *PaymentHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "Card not found")
	}
	u := currentUser(c)
	card, field := parseCard(c, false)
	if field != "" {
		applog.Security(c, "validation.fail", map[string]any{"field": field, "form": "payment"})
		return redirectWithFlash(c, "/payment/"+c.Params("id")+"/edit", "Please check the "+field+" field.")
	}
	err := h.Payments.Update(c.UserContext(), id, u.Email, card)
	switch {
	case errors.Is(err, services.ErrNotFound):
		applog.Security(c, "access.denied.payment", map[string]any{"payment_id": id, "email": u.Email})
		return notFound(c, "Card not found")
	case errors.Is(err, services.ErrDuplicateCard):
		return redirectWithFlash(c, "/payment/"+c.Params("id")+"/edit", "That card is already registered.")
	case err != nil:
		applog.Error(c, "payment.update", err, nil)
		return serverError(c, "Could not save the card.")
	}
	applog.Audit(c, "payment.update", map[string]any{"email": u.Email, "payment_id": id})
	return redirectWithFlash(c, paymentsTab, "Card updated.")
}

func (h *PaymentHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "Card not found")
	}
	u := currentUser(c)
	err := h.Payments.Delete(c.UserContext(), id, u.Email)
	if errors.Is(err, services.ErrNotFound) {
		applog.Security(c, "access.denied.payment", map[string]any{"payment_id": id, "email": u.Email})
		return notFound(c, "Card not found")
	}
	if err != nil {
		applog.Error(c, "payment.delete", err, nil)
		return serverError(c, "Could not delete the card.")
	}
	applog.Audit(c, "payment.delete", map[string]any{"email": u.Email, "payment_id": id})
	return redirectWithFlash(c, paymentsTab, "Card removed.")
}
