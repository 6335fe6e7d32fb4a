package domain

import (
	"regexp"
	"time"
)

// CardBrand names a payment card network.
type CardBrand string

const (
	BrandVisa       CardBrand = "visa"
	BrandMastercard CardBrand = "mastercard"
	BrandAmex       CardBrand = "american_express"
	BrandDiscover   CardBrand = "discover"
	BrandDiners     CardBrand = "diners"
	BrandUnknown    CardBrand = "unknown"
)

// Checked in order; the first match wins.
var brandPrefixes = []struct {
	re    *regexp.Regexp
	brand CardBrand
}{
	{regexp.MustCompile(`^4`), BrandVisa},
	{regexp.MustCompile(`^5[1-5]`), BrandMastercard},
	{regexp.MustCompile(`^3[47]`), BrandAmex},
	{regexp.MustCompile(`^6`), BrandDiscover},
	{regexp.MustCompile(`^3[068]`), BrandDiners},
}

// DetectBrand infers the card network from the leading digits.
func DetectBrand(number string) CardBrand {
	for _, p := range brandPrefixes {
		if p.re.MatchString(number) {
			return p.brand
		}
	}
	return BrandUnknown
}

// Card is a saved payment card. Only the last four digits are kept.
type Card struct {
	ID         string    `json:"id"`
	AccountID  string    `json:"account_id"`
	HolderName string    `json:"holder_name"`
	Brand      CardBrand `json:"brand"`
	Last4      string    `json:"last4"`
	Expiry     string    `json:"expiry"`
	CreatedAt  time.Time `json:"created_at"`
}
