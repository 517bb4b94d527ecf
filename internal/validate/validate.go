package validate

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"nittanymarket/internal/domain"
)

var (
	reZIP     = regexp.MustCompile(`^[0-9]{5}$`)
	reEmail   = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reQ       = regexp.MustCompile(`^[A-Za-z0-9 _'&.,-]{1,50}$`)
	reCard    = regexp.MustCompile(`^[0-9]{13,19}$`)
	reCVV     = regexp.MustCompile(`^[0-9]{3,4}$`)
	reDigits  = regexp.MustCompile(`^[0-9]{4,17}$`)
	reState   = regexp.MustCompile(`^[A-Z]{2}$`)
	reStreetN = regexp.MustCompile(`^[0-9A-Za-z-]{1,10}$`)
)

// Lengths accepted for free text.
const (
	MaxReview = 1000
	MaxName   = 100
)

func Zip(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reZIP.MatchString(s)
}

func State(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	return s, reState.MatchString(s)
}

func StreetNum(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reStreetN.MatchString(s)
}

// Email trims and lower-cases; emails are unique regardless of case.
func Email(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) == 0 || len(s) > 100 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Q validates a search query: trims, enforces allowed characters and max length.
// An empty query is valid and means "no keyword".
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	if len(s) > 50 {
		s = s[:50]
	}
	return s, reQ.MatchString(s)
}

// Qty parses an order quantity. Unlike a clamp, anything that is not a
// whole number of at least 1 is rejected.
func Qty(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > 10000 {
		return 0, false
	}
	return n, true
}

func Rating(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > 5 {
		return 0, false
	}
	return n, true
}

// ID parses a positive surrogate key.
func ID(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// Price parses a non-negative amount with at most two decimals.
// An empty string is valid and returns nil.
func Price(s string) (*domain.Money, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	m, err := domain.ParseMoney(s)
	if err != nil {
		return nil, false
	}
	return &m, true
}

// Text trims and bounds free text by characters, not bytes.
func Text(s string, max int) (string, bool) {
	s = strings.TrimSpace(s)
	return s, utf8.RuneCountInString(s) <= max
}

// Name validates a displayable name (business name, city, position).
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || utf8.RuneCountInString(s) > MaxName {
		return "", false
	}
	return s, true
}

// CardNumber strips spaces and dashes and applies the Luhn check.
func CardNumber(s string) (string, bool) {
	s = strings.NewReplacer(" ", "", "-", "").Replace(s)
	if !reCard.MatchString(s) {
		return "", false
	}
	sum := 0
	double := false
	for i := len(s) - 1; i >= 0; i-- {
		d := int(s[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return s, sum%10 == 0
}

func CVV(s string) bool { return reCVV.MatchString(strings.TrimSpace(s)) }

func Month(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	return n, err == nil && n >= 1 && n <= 12
}

// Year accepts the current year up to twenty years ahead.
func Year(s string, now time.Time) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	y := now.Year()
	return n, err == nil && n >= y && n <= y+20
}

// BankNumber validates routing and account numbers as plain digit strings.
func BankNumber(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reDigits.MatchString(s)
}

// Password requires 8-64 characters with lower, upper, digit and symbol.
func Password(s string) bool {
	l := len(s)
	if l < 8 || l > 64 {
		return false
	}
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			hasLower = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	return hasLower && hasUpper && hasDigit && hasSymbol
}
