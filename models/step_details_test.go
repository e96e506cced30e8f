package models

import (
	"fmt"
	"testing"
	"time"
)

func TestDecodeStepDetailsNarrowsPerStep(t *testing.T) {
	dispatched := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	blob := NewStepDetails(NotificationDetails{
		MatchedCount: 3,
		SuccessCount: 2,
		FailureCount: 1,
		Errors:       []string{"sms gateway timeout"},
		ProviderIDs:  []string{"wp-1", "wp-2", "wp-3"},
		DispatchedAt: dispatched,
	})

	decoded, err := DecodeStepDetails(StepNotification, blob)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	details, ok := decoded.(*NotificationDetails)
	if !ok {
		t.Fatalf("expected *NotificationDetails, got %T", decoded)
	}
	if details.MatchedCount != 3 || details.SuccessCount != 2 || details.FailureCount != 1 {
		t.Fatalf("counts lost in round trip: %+v", details)
	}
	if len(details.ProviderIDs) != 3 || details.ProviderIDs[0] != "wp-1" {
		t.Fatalf("provider ids lost: %v", details.ProviderIDs)
	}
	if !details.DispatchedAt.Equal(dispatched) {
		t.Fatalf("dispatch time lost: %v", details.DispatchedAt)
	}
}

func TestDecodeStepDetailsVariantPerName(t *testing.T) {
	cases := []struct {
		step string
		in   interface{}
		want string
	}{
		{StepRequest, RequestDetails{BookingRequestID: "bk-1"}, "*models.RequestDetails"},
		{StepMessage, MessageDetails{Urgency: "high"}, "*models.MessageDetails"},
		{StepProviders, ProvidersDetails{ContactedCount: 2}, "*models.ProvidersDetails"},
		{StepQuotes, QuotesDetails{AnalyzedCount: 2}, "*models.QuotesDetails"},
		{StepUserResponse, UserResponseDetails{Intent: "accepted"}, "*models.UserResponseDetails"},
		{StepConfirmation, ConfirmationDetails{ProviderNotified: true}, "*models.ConfirmationDetails"},
		{StepComplete, CompleteDetails{FinalStatus: RunCompleted}, "*models.CompleteDetails"},
	}

	for _, tc := range cases {
		decoded, err := DecodeStepDetails(tc.step, NewStepDetails(tc.in))
		if err != nil {
			t.Fatalf("%s: decode failed: %v", tc.step, err)
		}
		if got := fmt.Sprintf("%T", decoded); got != tc.want {
			t.Errorf("%s: narrowed to %s, want %s", tc.step, got, tc.want)
		}
	}
}

func TestDecodeStepDetailsUnknownStep(t *testing.T) {
	if _, err := DecodeStepDetails("Reconciliation", StepDetails{}); err == nil {
		t.Fatal("expected an error for an unknown step name")
	}
}

func TestStepNumberOrdinals(t *testing.T) {
	if got := StepNumber(StepRequest); got != 1 {
		t.Errorf("Request ordinal = %d", got)
	}
	if got := StepNumber(StepComplete); got != 8 {
		t.Errorf("Complete ordinal = %d", got)
	}
	if got := StepNumber("Unknown"); got != 0 {
		t.Errorf("unknown step ordinal = %d", got)
	}
}
