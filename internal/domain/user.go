package domain

import "strings"

type Role string

const (
	RoleBuyer    Role = "buyer"
	RoleSeller   Role = "seller"
	RoleHelpdesk Role = "helpdesk"
)

// ParseRole accepts the lower-case role names used in forms and the users table.
func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleBuyer, RoleSeller, RoleHelpdesk:
		return r, true
	}
	return "", false
}

// Dashboard is the landing path for the role.
func (r Role) Dashboard() string {
	switch r {
	case RoleBuyer:
		return "/buyer"
	case RoleSeller:
		return "/seller"
	case RoleHelpdesk:
		return "/helpdesk"
	}
	return "/"
}

// Account is the credential row plus, when loaded, the payload of its role.
// Exactly one of Buyer, Seller or Helpdesk matches Role.
type Account struct {
	Email string `db:"email"`
	Hash  string `db:"password_hash"`
	Role  Role   `db:"role"`

	Buyer    *BuyerProfile    `db:"-"`
	Seller   *SellerProfile   `db:"-"`
	Helpdesk *HelpdeskProfile `db:"-"`
}

func (a *Account) Is(r Role) bool { return a != nil && a.Role == r }

type BuyerProfile struct {
	Email        string `db:"email"`
	BusinessName string `db:"business_name"`
	AddressID    *int64 `db:"address_id"`
}

type SellerProfile struct {
	Email         string `db:"email"`
	BusinessName  string `db:"business_name"`
	AddressID     *int64 `db:"address_id"`
	RoutingNumber string `db:"bank_routing_number"`
	AccountNumber string `db:"bank_account_number"`
	Balance       Money  `db:"balance_cents"`
}

type HelpdeskProfile struct {
	Email    string `db:"email"`
	Position string `db:"position"`
}

type Address struct {
	ID         int64  `db:"id"`
	Zipcode    string `db:"zipcode"`
	StreetNum  string `db:"street_num"`
	StreetName string `db:"street_name"`
	City       string `db:"city"`
	State      string `db:"state"`
}
