package helpers

import "regexp"

// msisdnPattern accepts Kenyan mobile numbers with or without a country
// code prefix: 0712345678, 254712345678, +254712345678.
var msisdnPattern = regexp.MustCompile(`^(?:\+?254|0)?(7\d{8})$`)

// NormalizeMsisdn converts any accepted phone format to the
// international 2547XXXXXXXX form. The second return is false when the
// input is not a recognized Kenyan mobile number.
func NormalizeMsisdn(phone string) (string, bool) {
	m := msisdnPattern.FindStringSubmatch(phone)
	if m == nil {
		return "", false
	}
	return "254" + m[1], true
}

// MaskMsisdn hides the middle digits of a normalized number for logs.
func MaskMsisdn(phone string) string {
	if len(phone) < 8 {
		return phone
	}
	return phone[:4] + "****" + phone[len(phone)-3:]
}
