package valueobject

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	USD Currency = "USD" // US Dollar (default)
	EUR Currency = "EUR" // Euro
	GBP Currency = "GBP" // British Pound
	JPY Currency = "JPY" // Japanese Yen
	CNY Currency = "CNY" // Chinese Yuan
	KRW Currency = "KRW" // South Korean Won
)

// DefaultCurrency is the settlement currency for the platform
const DefaultCurrency = USD

// IsValid returns true if the currency is one of the supported codes
func (c Currency) IsValid() bool {
	switch c {
	case USD, EUR, GBP, JPY, CNY, KRW:
		return true
	}
	return false
}

// String returns the currency code as a string
func (c Currency) String() string {
	return string(c)
}
