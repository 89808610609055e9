package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"foodbridge/internal/domain"
)

// EventType identifies an engine event emitted to the dispatcher.
type EventType string

const (
	EventDonationCreated   EventType = "DONATION_CREATED"
	EventDonationAssigned  EventType = "DONATION_ASSIGNED"
	EventDonationCancelled EventType = "DONATION_CANCELLED"
	EventDonationExpired   EventType = "DONATION_EXPIRED"
	EventDonationCompleted EventType = "DONATION_COMPLETED"
)

// Event is a lifecycle event delivered to the notification dispatcher.
type Event struct {
	Type        EventType
	DonationID  string
	ActorID     string
	RecipientID string
	Title       string
	Message     string
	Data        map[string]interface{}
	CreatedAt   time.Time
}

// EventDispatcher consumes engine events asynchronously. Dispatcher failures
// never roll back the state change that produced the event.
type EventDispatcher interface {
	Dispatch(ctx context.Context, event Event)
}

// NotificationService delivers engine events to interested parties. The
// email/push transport lives outside the engine; this implementation logs
// and hands off.
type NotificationService struct{}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyDonationCreated announces a newly posted donation.
func (s *NotificationService) NotifyDonationCreated(ctx context.Context, d *domain.Donation) {
	s.Dispatch(ctx, Event{
		Type:        EventDonationCreated,
		DonationID:  d.ID,
		RecipientID: d.DonorID,
		Title:       "Donation Posted",
		Message:     fmt.Sprintf("Your donation of %.1f kg (%s) is live and being matched", d.QuantityKg, d.FoodType),
		Data: map[string]interface{}{
			"donation_id": d.ID,
			"quantity_kg": d.QuantityKg,
			"expiry_time": d.ExpiryTime,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyDonationAssigned announces an actor assignment to the donor.
func (s *NotificationService) NotifyDonationAssigned(ctx context.Context, d *domain.Donation, actor *domain.Actor) {
	s.Dispatch(ctx, Event{
		Type:        EventDonationAssigned,
		DonationID:  d.ID,
		ActorID:     actor.ID,
		RecipientID: d.DonorID,
		Title:       "Donation Matched",
		Message:     fmt.Sprintf("%s (%s) has been assigned to your donation", actor.Name, actor.Role),
		Data: map[string]interface{}{
			"donation_id": d.ID,
			"actor_id":    actor.ID,
			"actor_role":  actor.Role,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyDonationCancelled tells the released actors the match was cancelled.
func (s *NotificationService) NotifyDonationCancelled(ctx context.Context, d *domain.Donation, releasedActorIDs []string) {
	for _, actorID := range releasedActorIDs {
		s.Dispatch(ctx, Event{
			Type:        EventDonationCancelled,
			DonationID:  d.ID,
			ActorID:     actorID,
			RecipientID: actorID,
			Title:       "Match Cancelled",
			Message:     "The donation you were assigned to has been cancelled and re-entered matching",
			Data: map[string]interface{}{
				"donation_id": d.ID,
			},
			CreatedAt: time.Now(),
		})
	}
}

// NotifyDonationExpired tells the donor a donation passed its window.
func (s *NotificationService) NotifyDonationExpired(ctx context.Context, d *domain.Donation) {
	s.Dispatch(ctx, Event{
		Type:        EventDonationExpired,
		DonationID:  d.ID,
		RecipientID: d.DonorID,
		Title:       "Donation Expired",
		Message:     "Your donation passed its expiry window before pickup",
		Data: map[string]interface{}{
			"donation_id": d.ID,
			"expiry_time": d.ExpiryTime,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyDonationCompleted announces a completed handoff.
func (s *NotificationService) NotifyDonationCompleted(ctx context.Context, d *domain.Donation) {
	s.Dispatch(ctx, Event{
		Type:        EventDonationCompleted,
		DonationID:  d.ID,
		ActorID:     d.AssignedNGOID,
		RecipientID: d.DonorID,
		Title:       "Donation Completed",
		Message:     fmt.Sprintf("Your donation of %.1f kg was delivered", d.QuantityKg),
		Data: map[string]interface{}{
			"donation_id": d.ID,
			"ngo_id":      d.AssignedNGOID,
		},
		CreatedAt: time.Now(),
	})
}

// Dispatch hands an event to the external dispatcher. The engine treats it
// as fire-and-forget.
func (s *NotificationService) Dispatch(ctx context.Context, event Event) {
	log.Printf("[EVENT] Type=%s, Donation=%s, Recipient=%s, Message=%s",
		event.Type, event.DonationID, event.RecipientID, event.Message)
}

var _ EventDispatcher = (*NotificationService)(nil)
