package enums

// CartStatus tracks whether a cart record is still open for edits or has
// already been turned into an order. Converted carts are kept for audit and
// never reactivated.
type CartStatus string

const (
	CartStatusActive    CartStatus = "active"
	CartStatusConverted CartStatus = "converted"
)

// String implements fmt.Stringer.
func (c CartStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CartStatus.
func (c CartStatus) IsValid() bool {
	switch c {
	case CartStatusActive, CartStatusConverted:
		return true
	default:
		return false
	}
}
