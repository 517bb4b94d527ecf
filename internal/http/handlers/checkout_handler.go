package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	applog "nittanymarket/internal/log"
	"nittanymarket/internal/services"
	"nittanymarket/internal/validate"
)

type CheckoutHandler struct {
	Checkout *services.CheckoutService
}

// AddToCart is the product page's buy button; the marketplace has no
// persistent cart, so it forwards straight to checkout for one listing.
func (h *CheckoutHandler) AddToCart(c *fiber.Ctx) error {
	id, ok := validate.ID(c.FormValue("listing_id"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "listing_id"})
		return notFound(c, "This item is no longer available")
	}
	qty, ok := validate.Qty(c.FormValue("quantity", "1"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "quantity"})
		return redirectWithFlash(c, productPath(id), "Quantity must be a whole number of at least 1.")
	}
	return c.Redirect(checkoutPath(id) + "?qty=" + strconv.Itoa(qty))
}

func (h *CheckoutHandler) Form(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "This item is no longer available")
	}
	v, err := h.Checkout.Prepare(c.UserContext(), currentUser(c).Email, id)
	switch {
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrNotAvailable):
		return notFound(c, "This item is no longer available")
	case err != nil:
		applog.Error(c, "checkout.load", err, map[string]any{"listing_id": id})
		return serverError(c, "Could not load checkout. Please retry.")
	}
	qty, ok := validate.Qty(c.Query("qty", "1"))
	if !ok {
		qty = 1
	}
	return render(c, "checkout", fiber.Map{"V": v, "Qty": qty})
}

func (h *CheckoutHandler) Place(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "This item is no longer available")
	}
	u := currentUser(c)

	req := services.PlaceOrderRequest{BuyerEmail: u.Email, ListingID: id}
	// quantity and payment are checked by the service so that a bad value
	// yields the same outcome as any other rejected checkout
	if n, err := strconv.Atoi(c.FormValue("quantity")); err == nil {
		req.Quantity = n
	}
	if pm, ok := validate.ID(c.FormValue("payment_method_id")); ok {
		req.PaymentMethodID = pm
	}

	orderID, err := h.Checkout.PlaceOrder(c.UserContext(), req)
	if err != nil {
		fields := map[string]any{
			"buyer":      u.Email,
			"listing_id": id,
			"quantity":   req.Quantity,
			"reason":     err.Error(),
		}
		var msg string
		switch {
		case errors.Is(err, services.ErrInvalidQuantity):
			msg = "Quantity must be a whole number of at least 1."
		case errors.Is(err, services.ErrInsufficientStock):
			msg = "Not enough stock for that quantity."
		case errors.Is(err, services.ErrInvalidPayment):
			msg = "Please choose a valid payment method."
		case errors.Is(err, services.ErrNotAvailable):
			applog.Security(c, "order.place.fail", fields)
			return redirectWithFlash(c, productPath(id), "Sorry, this item is no longer available.")
		default:
			applog.Error(c, "order.place.error", err, fields)
			return serverError(c, "Your order could not be completed. You have not been charged.")
		}
		applog.Security(c, "order.place.fail", fields)
		return redirectWithFlash(c, checkoutPath(id)+"?qty="+strconv.Itoa(max(req.Quantity, 1)), msg)
	}

	applog.Audit(c, "order.place", map[string]any{
		"order_id":   orderID,
		"buyer":      u.Email,
		"listing_id": id,
		"quantity":   req.Quantity,
	})
	return redirectWithFlash(c, orderPath(orderID), "Order placed.")
}

func productPath(id int64) string  { return "/product/" + strconv.FormatInt(id, 10) }
func checkoutPath(id int64) string { return "/checkout/" + strconv.FormatInt(id, 10) }
func orderPath(id int64) string    { return "/order/" + strconv.FormatInt(id, 10) }
