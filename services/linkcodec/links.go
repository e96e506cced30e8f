// File: services/linkcodec/links.go
package linkcodec

import (
	"encoding/json"
	"fmt"
	"time"
)

// URL prefixes for the two link variants.
const (
	ProviderLinkPrefix = "/api/pl"
	QuoteLinkPrefix    = "/api/ql/quotes"
)

// ProviderLinkPayload lets a provider act on a run without authentication.
type ProviderLinkPayload struct {
	RunID              string `json:"runId"`
	WorkflowProviderID string `json:"workflowProviderId"`
	BookingRequestID   string `json:"bookingRequestId"`
	ExpiresAt          int64  `json:"expiresAt"` // unix seconds
}

// QuoteLinkPayload lets the requester view and select quotes without
// authentication.
type QuoteLinkPayload struct {
	RunID            string   `json:"runId"`
	BookingRequestID string   `json:"bookingRequestId"`
	QuoteIDs         []string `json:"quoteIds,omitempty"`
	ExpiresAt        int64    `json:"expiresAt"` // unix seconds
}

// EncodedLink is the persisted half of an issued link: the full encrypted
// blob plus the short hash that appears in the URL.
type EncodedLink struct {
	Encrypted string
	Hash      string
	ExpiresAt time.Time
}

// DecodedProviderLink is the outcome of decoding a provider link blob.
// Expiry is a business signal, not a transport error.
type DecodedProviderLink struct {
	Payload   ProviderLinkPayload
	IsExpired bool
}

// DecodedQuoteLink is the outcome of decoding a quote link blob.
type DecodedQuoteLink struct {
	Payload   QuoteLinkPayload
	IsExpired bool
}

// EncodeProviderLink serializes, encrypts and addresses a provider payload.
func (c *Codec) EncodeProviderLink(p ProviderLinkPayload) (*EncodedLink, error) {
	if p.RunID == "" || p.WorkflowProviderID == "" {
		return nil, fmt.Errorf("provider link payload missing identifiers")
	}
	return c.encode(p, p.ExpiresAt)
}

// DecodeProviderLink reverses EncodeProviderLink and checks expiry.
func (c *Codec) DecodeProviderLink(encrypted string) (*DecodedProviderLink, error) {
	plaintext, err := c.decrypt(encrypted)
	if err != nil {
		return nil, err
	}

	var payload ProviderLinkPayload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return nil, ErrDecryptionFailed
	}

	return &DecodedProviderLink{
		Payload:   payload,
		IsExpired: expired(payload.ExpiresAt),
	}, nil
}

// EncodeQuoteLink serializes, encrypts and addresses a quote payload.
func (c *Codec) EncodeQuoteLink(p QuoteLinkPayload) (*EncodedLink, error) {
	if p.RunID == "" {
		return nil, fmt.Errorf("quote link payload missing run id")
	}
	return c.encode(p, p.ExpiresAt)
}

// DecodeQuoteLink reverses EncodeQuoteLink and checks expiry.
func (c *Codec) DecodeQuoteLink(encrypted string) (*DecodedQuoteLink, error) {
	plaintext, err := c.decrypt(encrypted)
	if err != nil {
		return nil, err
	}

	var payload QuoteLinkPayload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return nil, ErrDecryptionFailed
	}

	return &DecodedQuoteLink{
		Payload:   payload,
		IsExpired: expired(payload.ExpiresAt),
	}, nil
}

// LinkStatus is the outcome of revalidating a stored link blob.
type LinkStatus struct {
	IsValid   bool `json:"isValid"`
	IsExpired bool `json:"isExpired"`
}

// Revalidate checks a stored encrypted blob against its hash and expiry.
func (c *Codec) Revalidate(hash, encrypted string) LinkStatus {
	if c.Hash(encrypted) != hash {
		return LinkStatus{}
	}

	decoded, err := c.DecodeProviderLink(encrypted)
	if err == nil {
		return LinkStatus{IsValid: true, IsExpired: decoded.IsExpired}
	}

	quote, err := c.DecodeQuoteLink(encrypted)
	if err != nil {
		return LinkStatus{}
	}
	return LinkStatus{IsValid: true, IsExpired: quote.IsExpired}
}

// ProviderLinkURL builds the public URL for a provider action link. An
// optional one-click action ("accept" or "decline") rides as a query
// parameter; the bare URL implies "view details".
func ProviderLinkURL(baseURL, hash, action string) string {
	url := fmt.Sprintf("%s%s/%s", baseURL, ProviderLinkPrefix, hash)
	if action != "" {
		url += "?action=" + action
	}
	return url
}

// QuoteLinkURL builds the public URL for a customer quote link.
func QuoteLinkURL(baseURL, hash string) string {
	return fmt.Sprintf("%s%s/%s", baseURL, QuoteLinkPrefix, hash)
}

func (c *Codec) encode(payload interface{}, expiresAt int64) (*EncodedLink, error) {
	if expiresAt <= 0 {
		return nil, fmt.Errorf("link payload missing expiry")
	}

	plaintext, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize link payload: %w", err)
	}

	encrypted, err := c.encrypt(plaintext)
	if err != nil {
		return nil, err
	}

	return &EncodedLink{
		Encrypted: encrypted,
		Hash:      c.Hash(encrypted),
		ExpiresAt: time.Unix(expiresAt, 0),
	}, nil
}

func expired(expiresAt int64) bool {
	return time.Now().Unix() > expiresAt
}
