package repos

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"nittanymarket/internal/domain"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "Passw0rd!"

const (
	DemoHelpdesk = "helpdesk@nittanymarket.test"
	DemoBuyer    = "buyer@nittanymarket.test"
	DemoBuyer2   = "buyer2@nittanymarket.test"
	DemoSeller   = "seller@nittanymarket.test"
)

// Seed inserts a small demo catalog. It is a no-op once the helpdesk account
// exists, so it is safe to run on every start.
func Seed(ctx context.Context, s *Store) error {
	ok, err := s.Users.Exists(ctx, DemoHelpdesk)
	if err != nil || ok {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	h := string(hash)

	return s.WithTx(ctx, func(r *Repos) error {
		for _, z := range [][3]string{
			{"16801", "State College", "PA"},
			{"16802", "University Park", "PA"},
		} {
			if err := r.Addresses.EnsureZipcode(ctx, z[0], z[1], z[2]); err != nil {
				return err
			}
		}
		addr := func(zip, num, street string) (*int64, error) {
			id, err := r.Addresses.Create(ctx, domain.Address{Zipcode: zip, StreetNum: num, StreetName: street})
			return &id, err
		}

		if err := r.Users.Create(ctx, DemoHelpdesk, h, domain.RoleHelpdesk); err != nil {
			return err
		}
		if err := r.Users.CreateHelpdesk(ctx, domain.HelpdeskProfile{Email: DemoHelpdesk, Position: "Support Staff"}); err != nil {
			return err
		}

		for _, b := range []struct{ email, name, num, street, card, cardType string }{
			{DemoBuyer, "Nittany Books", "100", "College Ave", "4111111111111111", "Visa"},
			{DemoBuyer2, "Lion Labs", "250", "Beaver Ave", "5500000000000004", "MasterCard"},
		} {
			aid, err := addr("16801", b.num, b.street)
			if err != nil {
				return err
			}
			if err := r.Users.Create(ctx, b.email, h, domain.RoleBuyer); err != nil {
				return err
			}
			if err := r.Users.CreateBuyer(ctx, domain.BuyerProfile{Email: b.email, BusinessName: b.name, AddressID: aid}); err != nil {
				return err
			}
			if _, err := r.Payments.Create(ctx, domain.PaymentMethod{
				OwnerEmail:  b.email,
				CardNumber:  b.card,
				CardType:    b.cardType,
				ExpireMonth: 12,
				ExpireYear:  2099,
			}); err != nil {
				return err
			}
		}

		aid, err := addr("16802", "1", "Old Main")
		if err != nil {
			return err
		}
		if err := r.Users.Create(ctx, DemoSeller, h, domain.RoleSeller); err != nil {
			return err
		}
		if err := r.Sellers.Create(ctx, domain.SellerProfile{
			Email:         DemoSeller,
			BusinessName:  "Lion Supply",
			AddressID:     aid,
			RoutingNumber: "031000053",
			AccountNumber: "000123456789",
		}); err != nil {
			return err
		}

		root := "Electronics"
		for _, c := range []struct {
			name   string
			parent *string
		}{
			{root, nil},
			{"Headphones", &root},
			{"Laptops", &root},
			{"Books", nil},
		} {
			if err := r.Categories.Create(ctx, c.name, c.parent); err != nil {
				return err
			}
		}

		for _, l := range []domain.Listing{
			{Category: "Headphones", Title: "Wireless Headphones", ProductName: "WH-1000",
				Description: "Noise cancelling over-ear headphones", UnitPrice: 4999, Quantity: 5},
			{Category: "Laptops", Title: "Refurbished Laptop", ProductName: "ThinkPad T480",
				Description: "14 inch, 16GB RAM, tested", UnitPrice: 32000, Quantity: 2},
			{Category: "Books", Title: "Intro to Databases", ProductName: "Textbook",
				Description: "Used textbook, light highlighting", UnitPrice: 2500, Quantity: 1},
		} {
			l.SellerEmail = DemoSeller
			if _, err := r.Listings.Create(ctx, l); err != nil {
				return err
			}
		}
		return nil
	})
}
