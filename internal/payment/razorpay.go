// Package payment wraps the Razorpay SDK behind the two operations the
// booking flow needs: creating a checkout order and verifying the
// signature the hosted checkout posts back.  Everything else about the
// gateway (refunds, settlements, webhooks) is out of scope here.
package payment

import (
    "crypto/hmac"
    "crypto/sha256"
    "encoding/hex"
    "fmt"

    razorpay "github.com/razorpay/razorpay-go"
)

// Order is the descriptor handed to the client so it can open the
// hosted checkout.  KeyID is the public key the checkout widget needs;
// the secret never leaves the server.
type Order struct {
    OrderID     string `json:"order_id"`
    AmountCents uint32 `json:"amount"`
    Currency    string `json:"currency"`
    KeyID       string `json:"key"`
}

// Client creates orders and verifies payment signatures.
type Client struct {
    api    *razorpay.Client
    keyID  string
    secret string
}

// NewClient builds a payment client from the configured key pair.
func NewClient(keyID, secret string) *Client {
    return &Client{
        api:    razorpay.NewClient(keyID, secret),
        keyID:  keyID,
        secret: secret,
    }
}

// CreateOrder registers an order with the gateway and returns the
// descriptor for the client.  Amounts are in the currency's smallest
// unit, matching our cent-based prices.  The receipt ties the gateway
// order back to our enrollment or booking for reconciliation.
func (c *Client) CreateOrder(amountCents uint32, currency, receipt string, notes map[string]interface{}) (Order, error) {
    data := map[string]interface{}{
        "amount":   amountCents,
        "currency": currency,
        "receipt":  receipt,
    }
    if len(notes) > 0 {
        data["notes"] = notes
    }
    body, err := c.api.Order.Create(data, nil)
    if err != nil {
        return Order{}, fmt.Errorf("create order: %w", err)
    }
    id, _ := body["id"].(string)
    if id == "" {
        return Order{}, fmt.Errorf("create order: gateway returned no id")
    }
    return Order{
        OrderID:     id,
        AmountCents: amountCents,
        Currency:    currency,
        KeyID:       c.keyID,
    }, nil
}

// VerifySignature checks the HMAC the checkout posts back after a
// successful payment.  Per the gateway contract the signed message is
// "<order_id>|<payment_id>" keyed with the API secret.  The comparison
// is constant-time.
func (c *Client) VerifySignature(orderID, paymentID, signature string) bool {
    mac := hmac.New(sha256.New, []byte(c.secret))
    mac.Write([]byte(orderID + "|" + paymentID))
    expected := hex.EncodeToString(mac.Sum(nil))
    return hmac.Equal([]byte(expected), []byte(signature))
}
