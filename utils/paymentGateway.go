package utils

import (
	"fmt"
	"time"

	"lms/config"

	"github.com/go-resty/resty/v2"
)

// GatewayReceipt is the upstream gateway's view of a settled transaction
type GatewayReceipt struct {
	TransactionID string  `json:"transaction_id"`
	Status        string  `json:"status"` // settled, pending, failed
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
}

// FetchGatewayReceipt looks up a transaction receipt on the upstream payment
// gateway. Settlement itself happens before enrollment ever reaches this
// service; the lookup is an additive check and is skipped entirely when no
// gateway URL is configured. Returns the parsed receipt and the raw body.
func FetchGatewayReceipt(transactionID string) (*GatewayReceipt, []byte, error) {
	if config.AppConfig.PaymentGatewayURL == "" {
		return nil, nil, nil
	}

	client := resty.New().
		SetBaseURL(config.AppConfig.PaymentGatewayURL).
		SetTimeout(10 * time.Second)

	receipt := new(GatewayReceipt)
	resp, err := client.R().
		SetHeader("Authorization", "Bearer "+config.AppConfig.PaymentGatewayKey).
		SetResult(receipt).
		Get("/receipts/" + transactionID)
	if err != nil {
		return nil, nil, err
	}
	if resp.IsError() {
		return nil, nil, fmt.Errorf("gateway returned status %d for transaction %s", resp.StatusCode(), transactionID)
	}

	return receipt, resp.Body(), nil
}
