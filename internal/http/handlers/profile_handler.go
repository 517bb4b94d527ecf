package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"nittanymarket/internal/domain"
	applog "nittanymarket/internal/log"
	"nittanymarket/internal/services"
	"nittanymarket/internal/validate"
)

type ProfileHandler struct {
	Profile *services.ProfileService
}

func (h *ProfileHandler) Update(c *fiber.Ctx) error {
	u := currentUser(c)
	back := u.Role.Dashboard()
	if u.Is(domain.RoleBuyer) {
		back += "?tab=profile"
	}
	invalid := func(field string) error {
		applog.Security(c, "validation.fail", map[string]any{"field": field, "form": "profile"})
		return redirectWithFlash(c, back, "Please check the "+field+" field.")
	}

	var in services.ProfileUpdate
	var ok bool
	if bn := c.FormValue("business_name"); bn != "" {
		if in.BusinessName, ok = validate.Name(bn); !ok {
			return invalid("business name")
		}
	}
	addr, field := parseAddress(c, false)
	if field != "" {
		return invalid(field)
	}
	in.Address = addr
	if u.Is(domain.RoleSeller) {
		if v := c.FormValue("routing_number"); v != "" {
			if in.RoutingNumber, ok = validate.BankNumber(v); !ok {
				return invalid("routing number")
			}
		}
		if v := c.FormValue("account_number"); v != "" {
			if in.AccountNumber, ok = validate.BankNumber(v); !ok {
				return invalid("account number")
			}
		}
	}
	if np := c.FormValue("new_password"); np != "" {
		if !validate.Password(np) {
			return invalid("new password")
		}
		in.Password = services.PasswordChange{
			Current: c.FormValue("current_password"),
			New:     np,
			Confirm: c.FormValue("confirm_password"),
		}
	}

	sid, _ := c.Locals("sid").(string)
	err := h.Profile.Update(c.UserContext(), u, sid, in)
	switch {
	case errors.Is(err, services.ErrBadCreds):
		applog.Security(c, "profile.password.fail", map[string]any{"email": u.Email})
		return redirectWithFlash(c, back, "Current password is incorrect.")
	case errors.Is(err, services.ErrPasswordMismatch):
		return redirectWithFlash(c, back, "New passwords do not match.")
	case errors.Is(err, services.ErrInvalidInput):
		return redirectWithFlash(c, back, "City and state are required for a new zipcode.")
	case err != nil:
		applog.Error(c, "profile.update", err, nil)
		return serverError(c, "Could not update your profile.")
	}
	applog.Audit(c, "profile.update", map[string]any{"email": u.Email, "password_changed": in.Password.New != ""})
	return redirectWithFlash(c, back, "Profile updated.")
}
