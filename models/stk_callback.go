package models

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// FlexibleString absorbs the mixed types Safaricom puts in callback
// metadata values: amounts arrive as numbers, receipt numbers as
// strings, phone numbers as integers.
type FlexibleString string

func (fs *FlexibleString) UnmarshalJSON(data []byte) error {
	var s string
	var i int64
	var f float64

	if err := json.Unmarshal(data, &s); err == nil {
		*fs = FlexibleString(s)
		return nil
	}

	if err := json.Unmarshal(data, &i); err == nil {
		*fs = FlexibleString(fmt.Sprintf("%d", i))
		return nil
	}

	if err := json.Unmarshal(data, &f); err == nil {
		*fs = FlexibleString(fmt.Sprintf("%g", f))
		return nil
	}

	return fmt.Errorf("unable to parse %s as FlexibleString", string(data))
}

func (fs FlexibleString) ToDecimal() (decimal.Decimal, error) {
	return decimal.NewFromString(string(fs))
}

// STKCallbackEnvelope mirrors the nested structure Safaricom posts to
// the callback URL.
type STKCallbackEnvelope struct {
	Body struct {
		StkCallback STKCallback `json:"stkCallback"`
	} `json:"Body"`
}

type STKCallback struct {
	MerchantRequestID string               `json:"MerchantRequestID"`
	CheckoutRequestID string               `json:"CheckoutRequestID"`
	ResultCode        int                  `json:"ResultCode"`
	ResultDesc        string               `json:"ResultDesc"`
	CallbackMetadata  *STKCallbackMetadata `json:"CallbackMetadata"`
}

type STKCallbackMetadata struct {
	Item []STKMetadataItem `json:"Item"`
}

type STKMetadataItem struct {
	Name  string         `json:"Name"`
	Value FlexibleString `json:"Value"`
}

// MetadataValue returns the value of the named metadata item, or ""
// when the item is absent.
func (cb *STKCallback) MetadataValue(name string) FlexibleString {
	if cb.CallbackMetadata == nil {
		return ""
	}
	for _, item := range cb.CallbackMetadata.Item {
		if item.Name == name {
			return item.Value
		}
	}
	return ""
}
