package linkcodec

import (
	"errors"
	"testing"
	"time"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := New("test-secret", 8)
	if err != nil {
		t.Fatalf("failed to build codec: %v", err)
	}
	return c
}

func TestNewRequiresSecret(t *testing.T) {
	if _, err := New("", 8); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret, got %v", err)
	}
}

func TestNewClampsHashLength(t *testing.T) {
	c, err := New("secret", 99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(c.Hash("blob")); got != DefaultHashLength {
		t.Fatalf("expected hash length %d, got %d", DefaultHashLength, got)
	}

	c, _ = New("secret", 12)
	if got := len(c.Hash("blob")); got != 12 {
		t.Fatalf("expected hash length 12, got %d", got)
	}
}

func TestProviderLinkRoundTrip(t *testing.T) {
	c := newTestCodec(t)
	payload := ProviderLinkPayload{
		RunID:              "run-1",
		WorkflowProviderID: "wp-1",
		BookingRequestID:   "bk-1",
		ExpiresAt:          time.Now().Add(time.Hour).Unix(),
	}

	link, err := c.EncodeProviderLink(payload)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if link.Hash != c.Hash(link.Encrypted) {
		t.Fatal("hash does not address the encrypted blob")
	}

	decoded, err := c.DecodeProviderLink(link.Encrypted)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Payload != payload {
		t.Fatalf("payload mismatch: got %+v", decoded.Payload)
	}
	if decoded.IsExpired {
		t.Fatal("fresh link must not be expired")
	}
}

func TestQuoteLinkRoundTrip(t *testing.T) {
	c := newTestCodec(t)
	payload := QuoteLinkPayload{
		RunID:            "run-1",
		BookingRequestID: "bk-1",
		QuoteIDs:         []string{"q1", "q2"},
		ExpiresAt:        time.Now().Add(time.Hour).Unix(),
	}

	link, err := c.EncodeQuoteLink(payload)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	decoded, err := c.DecodeQuoteLink(link.Encrypted)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Payload.RunID != "run-1" || len(decoded.Payload.QuoteIDs) != 2 {
		t.Fatalf("payload mismatch: got %+v", decoded.Payload)
	}
}

func TestDecodeRejectsTamperedBlob(t *testing.T) {
	c := newTestCodec(t)
	link, err := c.EncodeProviderLink(ProviderLinkPayload{
		RunID:              "run-1",
		WorkflowProviderID: "wp-1",
		ExpiresAt:          time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	tampered := link.Encrypted[:len(link.Encrypted)-2] + "zz"
	if _, err := c.DecodeProviderLink(tampered); !errors.Is(err, ErrDecryptionFailed) {
		t.Fatalf("expected ErrDecryptionFailed, got %v", err)
	}

	if _, err := c.DecodeProviderLink("not-base64-至"); !errors.Is(err, ErrDecryptionFailed) {
		t.Fatalf("expected ErrDecryptionFailed for garbage input, got %v", err)
	}
}

func TestDecodeRejectsWrongKey(t *testing.T) {
	c := newTestCodec(t)
	other, _ := New("another-secret", 8)

	link, err := c.EncodeProviderLink(ProviderLinkPayload{
		RunID:              "run-1",
		WorkflowProviderID: "wp-1",
		ExpiresAt:          time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	if _, err := other.DecodeProviderLink(link.Encrypted); !errors.Is(err, ErrDecryptionFailed) {
		t.Fatalf("expected ErrDecryptionFailed with wrong key, got %v", err)
	}
}

func TestExpiredLinkDecodesWithFlag(t *testing.T) {
	c := newTestCodec(t)
	link, err := c.EncodeProviderLink(ProviderLinkPayload{
		RunID:              "run-1",
		WorkflowProviderID: "wp-1",
		ExpiresAt:          time.Now().Add(-time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	decoded, err := c.DecodeProviderLink(link.Encrypted)
	if err != nil {
		t.Fatalf("expiry must not be a decode error: %v", err)
	}
	if !decoded.IsExpired {
		t.Fatal("expected IsExpired for a past expiry")
	}
}

func TestRevalidate(t *testing.T) {
	c := newTestCodec(t)
	link, err := c.EncodeProviderLink(ProviderLinkPayload{
		RunID:              "run-1",
		WorkflowProviderID: "wp-1",
		ExpiresAt:          time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	status := c.Revalidate(link.Hash, link.Encrypted)
	if !status.IsValid || status.IsExpired {
		t.Fatalf("expected valid unexpired status, got %+v", status)
	}

	status = c.Revalidate("00000000", link.Encrypted)
	if status.IsValid {
		t.Fatal("expected hash mismatch to invalidate")
	}

	expired, _ := c.EncodeProviderLink(ProviderLinkPayload{
		RunID:              "run-1",
		WorkflowProviderID: "wp-1",
		ExpiresAt:          time.Now().Add(-time.Hour).Unix(),
	})
	status = c.Revalidate(expired.Hash, expired.Encrypted)
	if !status.IsValid || !status.IsExpired {
		t.Fatalf("expected valid but expired status, got %+v", status)
	}
}

func TestLinkURLs(t *testing.T) {
	base := "https://booking.example.com"

	if got := ProviderLinkURL(base, "abcd1234", ""); got != base+"/api/pl/abcd1234" {
		t.Errorf("unexpected view URL: %s", got)
	}
	if got := ProviderLinkURL(base, "abcd1234", "accept"); got != base+"/api/pl/abcd1234?action=accept" {
		t.Errorf("unexpected accept URL: %s", got)
	}
	if got := QuoteLinkURL(base, "abcd1234"); got != base+"/api/ql/quotes/abcd1234" {
		t.Errorf("unexpected quote URL: %s", got)
	}
}

func TestEncodeRequiresIdentifiersAndExpiry(t *testing.T) {
	c := newTestCodec(t)

	if _, err := c.EncodeProviderLink(ProviderLinkPayload{ExpiresAt: time.Now().Unix()}); err == nil {
		t.Fatal("expected error for missing identifiers")
	}
	if _, err := c.EncodeProviderLink(ProviderLinkPayload{RunID: "r", WorkflowProviderID: "w"}); err == nil {
		t.Fatal("expected error for missing expiry")
	}
	if _, err := c.EncodeQuoteLink(QuoteLinkPayload{ExpiresAt: time.Now().Unix()}); err == nil {
		t.Fatal("expected error for missing run id")
	}
}
