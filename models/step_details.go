package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// StepDetails is the persisted detail blob of a workflow step. The shape
// varies per step name; it is stored as a loose document and narrowed into
// a typed variant at the read boundary via DecodeStepDetails.
type StepDetails map[string]interface{}

// RequestDetails — step 1: the raw request plus requester contact.
type RequestDetails struct {
	BookingRequestID string      `json:"bookingRequestId"`
	CustomerContact  ContactInfo `json:"customerContact"`
	VehicleType      string      `json:"vehicleType"`
	PickupCity       string      `json:"pickupCity"`
	DropoffCity      string      `json:"dropoffCity"`
	PassengerCount   int         `json:"passengerCount"`
}

// MessageDetails — step 2: the message analysis outcome.
type MessageDetails struct {
	Urgency     string   `json:"urgency"`
	CleanedText string   `json:"cleanedText"`
	KeyPoints   []string `json:"keyPoints,omitempty"`
	Score       int      `json:"score"`
}

// NotificationDetails — step 3: match + dispatch outcome.
type NotificationDetails struct {
	MatchedCount int       `json:"matchedCount"`
	SuccessCount int       `json:"successCount"`
	FailureCount int       `json:"failureCount"`
	Errors       []string  `json:"errors,omitempty"`
	EndWorkflow  bool      `json:"endWorkflow,omitempty"` // true when no providers matched
	ProviderIDs  []string  `json:"providerIds,omitempty"`
	DispatchedAt time.Time `json:"dispatchedAt"`
}

// ProvidersDetails — step 4: accumulated response state at advancement.
type ProvidersDetails struct {
	ContactedCount int  `json:"contactedCount"`
	RespondedCount int  `json:"respondedCount"`
	QuotedCount    int  `json:"quotedCount"`
	WindowElapsed  bool `json:"windowElapsed,omitempty"`
}

// QuotesDetails — step 5: ranking + customer notification outcome.
type QuotesDetails struct {
	AnalyzedCount     int      `json:"analyzedCount"`
	SelectedQuoteIDs  []string `json:"selectedQuoteIds,omitempty"`
	MarketSummary     string   `json:"marketSummary,omitempty"`
	NotificationError string   `json:"notificationError,omitempty"`
}

// UserResponseDetails — step 6: the requester's classified intent.
type UserResponseDetails struct {
	Intent          string  `json:"intent"` // "accepted", "declined", "unclear"
	SelectedQuoteID string  `json:"selectedQuoteId,omitempty"`
	ProviderID      string  `json:"providerId,omitempty"`
	Amount          float64 `json:"amount,omitempty"`
	Notes           string  `json:"notes,omitempty"`
}

// ConfirmationDetails — step 7: both-party confirmation outcome.
type ConfirmationDetails struct {
	ProviderNotified bool   `json:"providerNotified"`
	CustomerNotified bool   `json:"customerNotified"`
	ProviderError    string `json:"providerError,omitempty"`
	CustomerError    string `json:"customerError,omitempty"`
	Analysis         string `json:"analysis,omitempty"`
}

// CompleteDetails — step 8: terminal summary.
type CompleteDetails struct {
	FinalStatus string    `json:"finalStatus"`
	CompletedAt time.Time `json:"completedAt"`
}

// NewStepDetails converts a typed variant into the persisted loose form.
func NewStepDetails(v interface{}) StepDetails {
	data, err := json.Marshal(v)
	if err != nil {
		return StepDetails{}
	}
	var out StepDetails
	if err := json.Unmarshal(data, &out); err != nil {
		return StepDetails{}
	}
	return out
}

// DecodeStepDetails narrows a loose detail blob into the variant for the
// given step name. Unknown step names are rejected.
func DecodeStepDetails(stepName string, d StepDetails) (interface{}, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode step details: %w", err)
	}

	var target interface{}
	switch stepName {
	case StepRequest:
		target = &RequestDetails{}
	case StepMessage:
		target = &MessageDetails{}
	case StepNotification:
		target = &NotificationDetails{}
	case StepProviders:
		target = &ProvidersDetails{}
	case StepQuotes:
		target = &QuotesDetails{}
	case StepUserResponse:
		target = &UserResponseDetails{}
	case StepConfirmation:
		target = &ConfirmationDetails{}
	case StepComplete:
		target = &CompleteDetails{}
	default:
		return nil, fmt.Errorf("unknown step name %q", stepName)
	}

	if err := json.Unmarshal(data, target); err != nil {
		return nil, fmt.Errorf("failed to decode %s details: %w", stepName, err)
	}
	return target, nil
}
