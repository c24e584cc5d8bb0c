package mpesa

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"surecover/helpers"
	"surecover/providers"
	"time"
)

const ProviderName = "MPESA"

const (
	defaultTokenLifetime = 3599 * time.Second
	tokenSafetyMargin    = 60 * time.Second
	maxRetries           = 3
	retryDelay           = time.Second
)

type Client struct {
	AuthURL        string
	PushURL        string
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	Passkey        string
	CallbackURL    string

	HTTP  *http.Client
	Cache TokenCache

	// Now is the clock used for password timestamps, overridable in tests.
	Now func() time.Time
}

var requiredEnv = []string{
	"MPESA_AUTH_URL",
	"MPESA_STK_PUSH_URL",
	"MPESA_CONSUMER_KEY",
	"MPESA_CONSUMER_SECRET",
	"MPESA_BUSINESS_SHORTCODE",
	"MPESA_PASSKEY",
	"MPESA_CALLBACK_URL",
}

// NewClientFromEnv builds the client from MPESA_* env vars, failing when
// any credential is missing so a misconfigured server never comes up.
func NewClientFromEnv() (*Client, error) {
	var missing []string
	for _, key := range requiredEnv {
		if os.Getenv(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing env vars: %s", strings.Join(missing, ", "))
	}

	return &Client{
		AuthURL:        os.Getenv("MPESA_AUTH_URL"),
		PushURL:        os.Getenv("MPESA_STK_PUSH_URL"),
		ConsumerKey:    os.Getenv("MPESA_CONSUMER_KEY"),
		ConsumerSecret: os.Getenv("MPESA_CONSUMER_SECRET"),
		ShortCode:      os.Getenv("MPESA_BUSINESS_SHORTCODE"),
		Passkey:        os.Getenv("MPESA_PASSKEY"),
		CallbackURL:    os.Getenv("MPESA_CALLBACK_URL"),
		HTTP:           &http.Client{Timeout: 10 * time.Second},
		Cache:          NewMemoryTokenCache(),
		Now:            time.Now,
	}, nil
}

// Timestamp renders the clock in the yyyyMMddHHmmss form the provider
// expects inside the request password.
func (c *Client) Timestamp() string {
	return c.Now().Format("20060102150405")
}

// Password derives the per-request password: base64 of
// shortcode + passkey + timestamp.
func (c *Client) Password(timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(c.ShortCode + c.Passkey + timestamp))
}

// AccessToken returns a cached bearer token when one is still valid,
// otherwise fetches a fresh one with HTTP Basic auth. Concurrent cache
// misses may fetch redundantly; tokens are not single-use so that is
// harmless.
func (c *Client) AccessToken() (string, error) {
	if token, ok := c.Cache.Get(); ok {
		return token, nil
	}

	req, err := http.NewRequest(http.MethodGet, c.AuthURL, nil)
	if err != nil {
		return "", helpers.NewPaymentError(helpers.ErrKindNetwork, "payment gateway unavailable", err.Error())
	}
	basic := base64.StdEncoding.EncodeToString([]byte(c.ConsumerKey + ":" + c.ConsumerSecret))
	req.Header.Set("Authorization", "Basic "+basic)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", helpers.NewPaymentError(helpers.ErrKindNetwork, "payment gateway unavailable", err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", helpers.NewPaymentError(helpers.ErrKindNetwork, "payment gateway unavailable", err.Error())
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   string `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &result); err != nil || result.AccessToken == "" {
		return "", helpers.NewPaymentError(helpers.ErrKindAuth, "payment gateway rejected credentials",
			fmt.Sprintf("status %d: %s", resp.StatusCode, string(body)))
	}

	lifetime := defaultTokenLifetime
	if secs, err := strconv.Atoi(result.ExpiresIn); err == nil && secs > 0 {
		lifetime = time.Duration(secs) * time.Second
	}
	c.Cache.Set(result.AccessToken, c.Now().Add(lifetime-tokenSafetyMargin))

	return result.AccessToken, nil
}

type stkPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	ErrorMessage        string `json:"errorMessage"`
}

// InitiatePush fires an STK push prompt at the phone. Transient
// transport failures and 5xx responses are retried with fixed backoff;
// 4xx responses are not. The caller owns de-duplication.
func (c *Client) InitiatePush(req providers.PushRequest) (*providers.PushResult, error) {
	token, err := c.AccessToken()
	if err != nil {
		return nil, err
	}

	timestamp := c.Timestamp()
	payload := map[string]any{
		"BusinessShortCode": c.ShortCode,
		"Password":          c.Password(timestamp),
		"Timestamp":         timestamp,
		"TransactionType":   "CustomerPayBillOnline",
		"Amount":            req.Amount,
		"PartyA":            req.Phone,
		"PartyB":            c.ShortCode,
		"PhoneNumber":       req.Phone,
		"CallBackURL":       c.CallbackURL,
		"AccountReference":  req.AccountReference,
		"TransactionDesc":   "Insurance Premium Payment",
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, helpers.NewPaymentError(helpers.ErrKindGateway, "payment request failed", err.Error())
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			log.Printf("⚠️  [STKPush] Retrying request, attempt %d/%d", attempt, maxRetries)
			time.Sleep(retryDelay)
		}

		httpReq, err := http.NewRequest(http.MethodPost, c.PushURL, bytes.NewBuffer(jsonBody))
		if err != nil {
			return nil, helpers.NewPaymentError(helpers.ErrKindNetwork, "payment gateway unavailable", err.Error())
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.HTTP.Do(httpReq)
		if err != nil {
			lastErr = helpers.NewPaymentError(helpers.ErrKindNetwork, "payment gateway unavailable", err.Error())
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = helpers.NewPaymentError(helpers.ErrKindNetwork, "payment gateway unavailable", err.Error())
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = helpers.NewPaymentError(helpers.ErrKindNetwork, "payment gateway unavailable",
				fmt.Sprintf("status %d: %s", resp.StatusCode, string(body)))
			continue
		}

		var result stkPushResponse
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, helpers.NewPaymentError(helpers.ErrKindGateway, "payment request failed",
				fmt.Sprintf("status %d: %s", resp.StatusCode, string(body)))
		}

		if result.ResponseCode != "0" {
			detail := result.ResponseDescription
			if detail == "" {
				detail = result.ErrorMessage
			}
			if detail == "" {
				detail = fmt.Sprintf("status %d: %s", resp.StatusCode, string(body))
			}
			return nil, helpers.NewPaymentError(helpers.ErrKindGateway, "payment request rejected by provider", detail)
		}

		return &providers.PushResult{
			MerchantRequestID:   result.MerchantRequestID,
			CheckoutRequestID:   result.CheckoutRequestID,
			ResponseDescription: result.ResponseDescription,
		}, nil
	}

	return nil, lastErr
}
