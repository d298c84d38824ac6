package extractor

import (
	"strings"

	"voice-complaint-go/internal/types"
)

type Category struct {
	Type     types.FraudType
	Keywords []string
}

// Catalog is ordered: Classify returns the first category with a keyword hit.
var Catalog = []Category{
	{types.FraudUPI, []string{"upi", "phonepe", "paytm", "google pay", "gpay", "bhim", "payment"}},
	{types.FraudBanking, []string{"bank", "account", "atm", "credit card", "debit card", "otp", "password"}},
	{types.FraudWhatsApp, []string{"whatsapp", "व्हाट्सएप", "message", "screenshot", "qr code"}},
	{types.FraudCall, []string{"call", "phone", "कॉल", "फोन", "बोल रहा", "customer care"}},
	{types.FraudInvestment, []string{"investment", "stock", "share", "trading", "profit", "bitcoin", "crypto"}},
	{types.FraudJob, []string{"job", "नौकरी", "work from home", "recruitment", "salary"}},
	{types.FraudLottery, []string{"lottery", "prize", "winner", "जीत", "इनाम"}},
	{types.FraudOLX, []string{"olx", "sale", "buy", "product", "delivery"}},
}

// Classify matches keywords as case-insensitive substrings.
func Classify(text string) types.FraudType {
	lower := strings.ToLower(text)
	for _, c := range Catalog {
		for _, kw := range c.Keywords {
			if strings.Contains(lower, kw) {
				return c.Type
			}
		}
	}
	return types.FraudOther
}
