package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"nittanymarket/internal/domain"
	"nittanymarket/internal/log"
	"nittanymarket/internal/metrics"
	"nittanymarket/internal/services"
	"nittanymarket/internal/validate"
)

type AuthHandler struct {
	Auth          *services.AuthService
	Metrics       *metrics.Metrics
	SecureCookies bool
}

func (h *AuthHandler) setSession(c *fiber.Ctx, sid string, ttl time.Duration, remember bool) {
	ck := &fiber.Cookie{
		Name:     sidCookie,
		Value:    sid,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   h.SecureCookies,
	}
	if remember {
		ck.Expires = time.Now().Add(ttl)
	}
	c.Cookie(ck)
}

func (h *AuthHandler) clearSession(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     sidCookie,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   h.SecureCookies,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	if u := currentUser(c); u != nil {
		return c.Redirect(u.Role.Dashboard())
	}
	return render(c, "login", fiber.Map{"Err": ""})
}

func (h *AuthHandler) loginFailed(c *fiber.Ctx, email, reason string) error {
	h.Metrics.ObserveLogin("fail")
	log.Security(c, "auth.login.fail", map[string]any{"email": email, "reason": reason})
	return c.Status(fiber.StatusUnauthorized).Render("login", fiber.Map{
		"Err": "Invalid email or password", "Email": email, "CSRFToken": c.Cookies("csrf_"),
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	email, ok := validate.Email(c.FormValue("email"))
	if !ok {
		return h.loginFailed(c, c.FormValue("email"), "bad_format")
	}
	pass := c.FormValue("password")
	if pass == "" || len(pass) > 128 {
		return h.loginFailed(c, email, "bad_password_format")
	}
	remember := c.FormValue("remember") != ""

	sid, acct, ttl, err := h.Auth.Login(c.UserContext(), email, pass, remember)
	if errors.Is(err, services.ErrBadCreds) {
		return h.loginFailed(c, email, "bad_credentials")
	}
	if err != nil {
		return err
	}

	// drop any session the browser carried in before this login
	if old := c.Cookies(sidCookie); old != "" {
		_ = h.Auth.Logout(c.UserContext(), old)
	}
	h.setSession(c, sid, ttl, remember)
	h.Metrics.ObserveLogin("ok")
	log.Audit(c, "auth.login.success", map[string]any{"email": acct.Email, "role": string(acct.Role), "remember": remember})
	return c.Redirect(acct.Role.Dashboard())
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := c.Cookies(sidCookie)
	if err := h.Auth.Logout(c.UserContext(), sid); err != nil {
		log.Error(c, "auth.logout", err, nil)
	}
	h.clearSession(c)
	if u := currentUser(c); u != nil {
		log.Audit(c, "auth.logout", map[string]any{"email": u.Email})
	}
	return c.Redirect("/")
}

// Dashboard sends each role to its own landing page.
func (h *AuthHandler) Dashboard(c *fiber.Ctx) error {
	return c.Redirect(currentUser(c).Role.Dashboard())
}

func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	return render(c, "forgot", nil)
}

func (h *AuthHandler) SignupForm(c *fiber.Ctx) error {
	return render(c, "signup", fiber.Map{"Role": c.Query("role", string(domain.RoleBuyer))})
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	req, field := parseSignup(c)
	if field != "" {
		log.Security(c, "validation.fail", map[string]any{"field": field, "form": "signup"})
		return c.Status(fiber.StatusBadRequest).Render("signup", fiber.Map{
			"Err": "Please check the " + field + " field.", "Role": string(req.Role), "Email": req.Email,
			"CSRFToken": c.Cookies("csrf_"),
		})
	}

	err := h.Auth.Signup(c.UserContext(), req)
	if err != nil {
		msg := ""
		switch {
		case errors.Is(err, services.ErrPasswordMismatch):
			msg = "Passwords do not match."
		case errors.Is(err, services.ErrEmailTaken):
			msg = "An account with that email already exists."
		case errors.Is(err, services.ErrDuplicateCard):
			msg = "That card is already registered."
		case errors.Is(err, services.ErrInvalidInput):
			msg = "City and state are required for a new zipcode."
		default:
			return err
		}
		log.Security(c, "auth.signup.fail", map[string]any{"email": req.Email, "reason": err.Error()})
		return c.Status(fiber.StatusBadRequest).Render("signup", fiber.Map{
			"Err": msg, "Role": string(req.Role), "Email": req.Email, "CSRFToken": c.Cookies("csrf_"),
		})
	}
	log.Audit(c, "auth.signup", map[string]any{"email": req.Email, "role": string(req.Role)})
	return redirectWithFlash(c, "/login", "Account created. Please log in.")
}

// parseSignup validates the signup form; field names the first bad input.
func parseSignup(c *fiber.Ctx) (services.SignupRequest, string) {
	var req services.SignupRequest
	role, ok := domain.ParseRole(c.FormValue("role"))
	if !ok {
		return req, "role"
	}
	req.Role = role
	if req.Email, ok = validate.Email(c.FormValue("email")); !ok {
		return req, "email"
	}
	req.Password = c.FormValue("password")
	req.Confirm = c.FormValue("confirm")
	if !validate.Password(req.Password) {
		return req, "password"
	}

	if role == domain.RoleHelpdesk {
		if p := c.FormValue("position"); p != "" {
			if req.Position, ok = validate.Name(p); !ok {
				return req, "position"
			}
		}
		return req, ""
	}

	if req.BusinessName, ok = validate.Name(c.FormValue("business_name")); !ok {
		return req, "business name"
	}
	addr, field := parseAddress(c, true)
	if field != "" {
		return req, field
	}
	req.Address = addr

	switch role {
	case domain.RoleSeller:
		if req.RoutingNumber, ok = validate.BankNumber(c.FormValue("routing_number")); !ok {
			return req, "routing number"
		}
		if req.AccountNumber, ok = validate.BankNumber(c.FormValue("account_number")); !ok {
			return req, "account number"
		}
	case domain.RoleBuyer:
		if c.FormValue("card_number") != "" {
			card, field := parseCard(c, true)
			if field != "" {
				return req, field
			}
			req.Card = &card
		}
	}
	return req, ""
}

// parseAddress reads zipcode, street_num, street_name, city and state.
// With required false an entirely empty address is accepted.
func parseAddress(c *fiber.Ctx, required bool) (services.AddressInput, string) {
	var a services.AddressInput
	if !required && c.FormValue("zipcode") == "" && c.FormValue("street_name") == "" {
		return a, ""
	}
	var ok bool
	if a.Zipcode, ok = validate.Zip(c.FormValue("zipcode")); !ok {
		return a, "zipcode"
	}
	if a.StreetNum, ok = validate.StreetNum(c.FormValue("street_num")); !ok {
		return a, "street number"
	}
	if a.StreetName, ok = validate.Name(c.FormValue("street_name")); !ok {
		return a, "street name"
	}
	if city := c.FormValue("city"); city != "" {
		if a.City, ok = validate.Name(city); !ok {
			return a, "city"
		}
	}
	if st := c.FormValue("state"); st != "" {
		if a.State, ok = validate.State(st); !ok {
			return a, "state"
		}
	}
	return a, ""
}

// parseCard reads card_number, card_type, expire_month, expire_year and cvv.
// The security code is checked and then dropped.
func parseCard(c *fiber.Ctx, needNumber bool) (services.CardInput, string) {
	var card services.CardInput
	var ok bool
	if needNumber || c.FormValue("card_number") != "" {
		if card.Number, ok = validate.CardNumber(c.FormValue("card_number")); !ok {
			return card, "card number"
		}
	}
	if card.Type, ok = validate.Name(c.FormValue("card_type")); !ok {
		return card, "card type"
	}
	if card.ExpireMonth, ok = validate.Month(c.FormValue("expire_month")); !ok {
		return card, "expiry month"
	}
	if card.ExpireYear, ok = validate.Year(c.FormValue("expire_year"), time.Now()); !ok {
		return card, "expiry year"
	}
	if !validate.CVV(c.FormValue("cvv")) {
		return card, "security code"
	}
	return card, ""
}
