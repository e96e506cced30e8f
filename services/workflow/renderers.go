// File: services/workflow/renderers.go
package workflow

import (
	"fmt"

	"github.com/rasel1911/onelimo/models"
	"github.com/rasel1911/onelimo/services/notification"
)

// TemplateRenderer is the opaque message-render capability. The engine only
// orchestrates delivery; a production deployment plugs the real templating
// service in here.
type TemplateRenderer interface {
	ProviderNotice(booking models.BookingRequest) notification.ProviderMessageRenderer
	CustomerQuoteNotice(booking models.BookingRequest, quoteCount int) notification.QuoteMessageRenderer
	ProviderConfirmation(booking models.BookingRequest, amount float64) notification.Message
	CustomerConfirmation(booking models.BookingRequest, providerName string, amount float64) notification.Message
}

// PlainRenderer renders minimal plain-text messages. It stands in for the
// external templating collaborator.
type PlainRenderer struct{}

func (PlainRenderer) ProviderNotice(booking models.BookingRequest) notification.ProviderMessageRenderer {
	return func(p models.WorkflowProvider, viewURL, acceptURL, declineURL string) notification.Message {
		subject := fmt.Sprintf("New booking request: %s to %s", booking.Pickup.City, booking.Dropoff.City)
		body := fmt.Sprintf(
			"Hi %s,\n\nA customer needs a %s for %d passenger(s), %s to %s on %s.\n\nView details: %s\nAccept: %s\nDecline: %s\n",
			p.Name, booking.VehicleType, booking.PassengerCount,
			booking.Pickup.City, booking.Dropoff.City,
			booking.PickupTime.Format("Mon 2 Jan 15:04"),
			viewURL, acceptURL, declineURL,
		)
		sms := fmt.Sprintf("New %s booking %s to %s. Respond: %s",
			booking.VehicleType, booking.Pickup.City, booking.Dropoff.City, viewURL)

		return notification.Message{Subject: subject, EmailBody: body, SMSBody: sms}
	}
}

func (PlainRenderer) CustomerQuoteNotice(booking models.BookingRequest, quoteCount int) notification.QuoteMessageRenderer {
	return func(quoteURL string) notification.Message {
		subject := fmt.Sprintf("Your quotes for %s to %s are ready", booking.Pickup.City, booking.Dropoff.City)
		body := fmt.Sprintf(
			"We received %d quote(s) for your journey.\n\nReview and choose: %s\n",
			quoteCount, quoteURL,
		)
		sms := fmt.Sprintf("%d quote(s) ready for your trip. Choose: %s", quoteCount, quoteURL)

		return notification.Message{Subject: subject, EmailBody: body, SMSBody: sms}
	}
}

func (PlainRenderer) ProviderConfirmation(booking models.BookingRequest, amount float64) notification.Message {
	subject := fmt.Sprintf("Booking confirmed: %s to %s", booking.Pickup.City, booking.Dropoff.City)
	body := fmt.Sprintf(
		"Your quote of %.2f was accepted for the journey %s to %s on %s.\n",
		amount, booking.Pickup.City, booking.Dropoff.City,
		booking.PickupTime.Format("Mon 2 Jan 15:04"),
	)
	return notification.Message{
		Subject:   subject,
		EmailBody: body,
		SMSBody:   fmt.Sprintf("Booking confirmed at %.2f: %s to %s", amount, booking.Pickup.City, booking.Dropoff.City),
	}
}

func (PlainRenderer) CustomerConfirmation(booking models.BookingRequest, providerName string, amount float64) notification.Message {
	subject := "Your booking is confirmed"
	body := fmt.Sprintf(
		"%s will take your journey %s to %s on %s at %.2f.\n",
		providerName, booking.Pickup.City, booking.Dropoff.City,
		booking.PickupTime.Format("Mon 2 Jan 15:04"), amount,
	)
	return notification.Message{
		Subject:   subject,
		EmailBody: body,
		SMSBody:   fmt.Sprintf("Confirmed: %s at %.2f for %s to %s", providerName, amount, booking.Pickup.City, booking.Dropoff.City),
	}
}
