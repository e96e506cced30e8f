// File: services/notification/dispatcher.go
package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/rasel1911/onelimo/models"
	"github.com/rasel1911/onelimo/services/linkcodec"
	"github.com/rasel1911/onelimo/utils"
)

// channelOutcome is one concurrent send unit's result.
type channelOutcome struct {
	channel string
	err     error
}

// DispatchToProviders issues an action link per provider and persists it
// against the provider's row before any send, so a failed send never leaves
// an orphaned link. SMS and email are then attempted concurrently and
// independently; one channel's failure never aborts the other, and no
// sibling is ever cancelled.
func (s *DefaultNotificationService) DispatchToProviders(ctx context.Context, run *models.WorkflowRun, providers []models.WorkflowProvider, render ProviderMessageRenderer) BatchResult {
	logger := utils.GetLogger()

	outcomes := make(chan channelOutcome, len(providers)*2)
	var wg sync.WaitGroup

	for _, p := range providers {
		wg.Add(1)
		go func(p models.WorkflowProvider) {
			defer wg.Done()
			s.notifyProvider(ctx, run, p, render, outcomes)
		}(p)
	}

	wg.Wait()
	close(outcomes)

	result := collect(outcomes)
	logger.Info("Provider dispatch batch settled",
		zap.String("workflowRunId", run.ID),
		zap.Int("successCount", result.SuccessCount),
		zap.Int("failureCount", result.FailureCount))
	return result
}

// notifyProvider handles one provider: link generation + persistence, then
// the dual-channel fan-out.
func (s *DefaultNotificationService) notifyProvider(ctx context.Context, run *models.WorkflowRun, p models.WorkflowProvider, render ProviderMessageRenderer, outcomes chan<- channelOutcome) {
	link, err := s.Codec.EncodeProviderLink(linkcodec.ProviderLinkPayload{
		RunID:              run.ID,
		WorkflowProviderID: p.ID,
		BookingRequestID:   run.BookingRequestID,
		ExpiresAt:          time.Now().Add(s.linkExpiry()).Unix(),
	})
	if err != nil {
		outcomes <- channelOutcome{channel: "link", err: fmt.Errorf("provider %s: %w", p.Name, err)}
		return
	}

	// Persist the link before sending.
	err = s.WorkflowProvider.UpdateSetDocument(p.ID, bson.M{
		"link_hash":    link.Hash,
		"link_payload": link.Encrypted,
		"link_expiry":  link.ExpiresAt,
	})
	if err != nil {
		outcomes <- channelOutcome{channel: "link", err: fmt.Errorf("provider %s: %w", p.Name, err)}
		return
	}

	msg := render(p,
		linkcodec.ProviderLinkURL(s.BaseURL, link.Hash, ""),
		linkcodec.ProviderLinkURL(s.BaseURL, link.Hash, "accept"),
		linkcodec.ProviderLinkURL(s.BaseURL, link.Hash, "decline"),
	)

	s.fanOutChannels(ctx, run.ID, p.ID, p.Contact(), msg, outcomes)
}

// SendCustomerQuoteNotification mirrors the provider path
// (generate-persist-send) with the quote-link variant. Channel selection is
// conditional on contact-info availability.
func (s *DefaultNotificationService) SendCustomerQuoteNotification(ctx context.Context, run *models.WorkflowRun, contact models.ContactInfo, render QuoteMessageRenderer) BatchResult {
	if !contact.HasAnyChannel() {
		return BatchResult{
			Success:      false,
			FailureCount: 1,
			Errors:       []string{"no contact information"},
		}
	}

	link, err := s.Codec.EncodeQuoteLink(linkcodec.QuoteLinkPayload{
		RunID:            run.ID,
		BookingRequestID: run.BookingRequestID,
		ExpiresAt:        time.Now().Add(s.linkExpiry()).Unix(),
	})
	if err != nil {
		return BatchResult{Success: false, FailureCount: 1, Errors: []string{err.Error()}}
	}

	err = s.RunRepo.UpdateSetDocument(run.ID, bson.M{
		"customer_link_hash":    link.Hash,
		"customer_link_payload": link.Encrypted,
		"customer_link_expiry":  link.ExpiresAt,
	})
	if err != nil {
		return BatchResult{Success: false, FailureCount: 1, Errors: []string{err.Error()}}
	}

	msg := render(linkcodec.QuoteLinkURL(s.BaseURL, link.Hash))
	return s.SendDirect(ctx, run.ID, "", contact, msg)
}

// SendDirect delivers an already rendered message to one contact over every
// available channel, concurrently, settling all outcomes.
func (s *DefaultNotificationService) SendDirect(ctx context.Context, runID, workflowProviderID string, contact models.ContactInfo, msg Message) BatchResult {
	if !contact.HasAnyChannel() {
		return BatchResult{
			Success:      false,
			FailureCount: 1,
			Errors:       []string{"no contact information"},
		}
	}

	outcomes := make(chan channelOutcome, 2)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.fanOutChannels(ctx, runID, workflowProviderID, contact, msg, outcomes)
	}()
	wg.Wait()
	close(outcomes)

	return collect(outcomes)
}

// fanOutChannels attempts SMS and email concurrently for one recipient and
// records an audit row per attempt.
func (s *DefaultNotificationService) fanOutChannels(ctx context.Context, runID, workflowProviderID string, contact models.ContactInfo, msg Message, outcomes chan<- channelOutcome) {
	var wg sync.WaitGroup

	if contact.Email != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Email.SendEmail(ctx, contact.Email, msg.Subject, msg.EmailBody)
			s.audit(runID, workflowProviderID, models.ChannelEmail, contact.Email, err)
			outcomes <- channelOutcome{channel: models.ChannelEmail, err: wrapRecipient(contact.Name, models.ChannelEmail, err)}
		}()
	}

	if contact.Phone != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.SMS.SendSMS(ctx, contact.Phone, msg.SMSBody)
			s.audit(runID, workflowProviderID, models.ChannelSMS, contact.Phone, err)
			outcomes <- channelOutcome{channel: models.ChannelSMS, err: wrapRecipient(contact.Name, models.ChannelSMS, err)}
		}()
	}

	wg.Wait()
}

// audit appends a send-attempt row. Inserts are keyed by attempt, never
// overwritten, so host retries cannot corrupt counts.
func (s *DefaultNotificationService) audit(runID, workflowProviderID, channel, recipient string, sendErr error) {
	n := &models.WorkflowNotification{
		ID:                 uuid.New().String(),
		WorkflowRunID:      runID,
		WorkflowProviderID: workflowProviderID,
		Type:               channel,
		Recipient:          recipient,
		Status:             models.NotificationSent,
		SentAt:             time.Now(),
	}
	if sendErr != nil {
		n.Status = models.NotificationFailed
		n.ErrorCode = "SEND_FAILED"
		n.ErrorMessage = sendErr.Error()
	}

	if err := s.NotificationRepo.Create(n); err != nil {
		utils.GetLogger().Error("Failed to record notification attempt",
			zap.String("workflowRunId", runID), zap.Error(err))
	}
}

func (s *DefaultNotificationService) linkExpiry() time.Duration {
	if s.LinkExpiryHours <= 0 {
		return linkcodec.DefaultExpiry
	}
	return time.Duration(s.LinkExpiryHours) * time.Hour
}

func collect(outcomes <-chan channelOutcome) BatchResult {
	var result BatchResult
	for o := range outcomes {
		if o.err != nil {
			result.FailureCount++
			result.Errors = append(result.Errors, o.err.Error())
		} else {
			result.SuccessCount++
		}
	}
	result.Success = result.SuccessCount > 0
	return result
}

func wrapRecipient(name, channel string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s (%s): %w", name, channel, err)
}
