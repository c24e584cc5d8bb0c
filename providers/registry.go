package providers

import (
	"strings"

	"github.com/shopspring/decimal"
)

type PushRequest struct {
	Phone            string          `json:"phone"`
	Amount           decimal.Decimal `json:"amount"`
	AccountReference string          `json:"account_reference"`
}

// PushResult carries the correlation identifiers the provider assigns
// at initiation. CheckoutRequestID is what the later callback is
// matched against.
type PushResult struct {
	MerchantRequestID   string `json:"merchant_request_id"`
	CheckoutRequestID   string `json:"checkout_request_id"`
	ResponseDescription string `json:"response_description"`
}

// PushProvider is a mobile-money gateway able to fire a server-initiated
// payment prompt at a phone. Implementations do not de-duplicate:
// calling twice creates two provider-side requests.
type PushProvider interface {
	InitiatePush(req PushRequest) (*PushResult, error)
}

var PushProviders = map[string]PushProvider{}

func RegisterProvider(name string, provider PushProvider) {
	PushProviders[strings.ToLower(name)] = provider
}

func GetProvider(name string) PushProvider {
	return PushProviders[strings.ToLower(name)]
}
