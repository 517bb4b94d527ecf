package handlers

import (
	"nittanymarket/internal/config"
	"nittanymarket/internal/metrics"
	"nittanymarket/internal/repos"
	"nittanymarket/internal/services"
)

type Deps struct {
	Auth *services.AuthService

	AuthHandler      *AuthHandler
	DashboardHandler *DashboardHandler
	ProductHandler   *ProductHandler
	SearchHandler    *SearchHandler
	CheckoutHandler  *CheckoutHandler
	OrderHandler     *OrderHandler
	ReviewHandler    *ReviewHandler
	PaymentHandler   *PaymentHandler
	ProfileHandler   *ProfileHandler
}

func NewDeps(store *repos.Store, cfg config.Config, m *metrics.Metrics) *Deps {
	authSvc := services.NewAuthService(store, cfg.SessionTTL, cfg.RememberTTL)
	catalogSvc := services.NewCatalogService(store)

	return &Deps{
		Auth:        authSvc,
		AuthHandler: &AuthHandler{Auth: authSvc, Metrics: m, SecureCookies: cfg.CookieSecure},
		DashboardHandler: &DashboardHandler{
			Catalog:   catalogSvc,
			Dashboard: services.NewDashboardService(store),
		},
		ProductHandler:  &ProductHandler{Catalog: catalogSvc},
		SearchHandler:   &SearchHandler{Catalog: catalogSvc},
		CheckoutHandler: &CheckoutHandler{Checkout: services.NewCheckoutService(store, m)},
		OrderHandler:    &OrderHandler{Orders: services.NewOrderService(store.Orders, store.Reviews)},
		ReviewHandler:   &ReviewHandler{Reviews: services.NewReviewService(store)},
		PaymentHandler:  &PaymentHandler{Payments: services.NewPaymentService(store.Payments)},
		ProfileHandler:  &ProfileHandler{Profile: services.NewProfileService(store)},
	}
}
