// Package lifecycle defines the closed set of assignment lifecycle events
// exchanged between the API surface and the dispatch worker over the ordered
// event log, together with their wire codec.
//
// Each event kind carries its own typed payload; the wire envelope is
// {type, orderId, driverId?, timestamp, payload} with a kind-specific JSON
// payload object.
package lifecycle

import (
	"encoding/json"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

// Kind identifies an assignment lifecycle event type on the wire.
type Kind string

const (
	// KindNewOrderReady signals that a freshly created order awaits dispatch.
	// Carries the pickup coordinates and cargo weight so candidate search
	// need not re-fetch them.
	KindNewOrderReady Kind = "new_order_ready"

	// KindOfferAccepted signals that the offered driver accepted within the deadline.
	KindOfferAccepted Kind = "offer_accepted"

	// KindOfferRefused signals that the offered driver refused the offer.
	KindOfferRefused Kind = "offer_refused"

	// KindOfferExpired signals that an offer deadline lapsed without response.
	KindOfferExpired Kind = "offer_expired"

	// KindManuallyAssigned signals an administrative proposal to a chosen driver.
	KindManuallyAssigned Kind = "manually_assigned"

	// KindCompleted signals that the mission was delivered.
	KindCompleted Kind = "completed"

	// KindCancelledByAdmin signals an administrative cancellation.
	KindCancelledByAdmin Kind = "cancelled_by_admin"

	// KindCancelledBySystem signals escalation: assignment attempts were
	// exhausted and the order was withdrawn for manual handling.
	KindCancelledBySystem Kind = "cancelled_by_system"

	// KindFailed signals that an accepted mission could not be finished.
	KindFailed Kind = "failed"
)

// Validate checks that the kind belongs to the closed set.
func (k Kind) Validate() error {
	switch k {
	case KindNewOrderReady, KindOfferAccepted, KindOfferRefused, KindOfferExpired,
		KindManuallyAssigned, KindCompleted, KindCancelledByAdmin, KindCancelledBySystem, KindFailed:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("event kind is invalid",
			fmt.Errorf("%q is not a lifecycle event kind", string(k)))
	}
}

// NewOrderReadyPayload carries the dispatch inputs for a fresh order.
type NewOrderReadyPayload struct {
	PickupLat   float64 `json:"pickupLat"`
	PickupLng   float64 `json:"pickupLng"`
	WeightGrams int     `json:"weightGrams"`
}

// ManuallyAssignedPayload identifies the administrator behind a manual proposal.
type ManuallyAssignedPayload struct {
	ActorID string `json:"actorId"`
}

// CancelledByAdminPayload identifies the administrator behind a cancellation.
type CancelledByAdminPayload struct {
	ActorID string `json:"actorId"`
}

// CancelledBySystemPayload names why the system withdrew the order.
type CancelledBySystemPayload struct {
	Reason string `json:"reason"`
}

// FailedPayload names why the mission could not be finished.
type FailedPayload struct {
	Reason string `json:"reason"`
}

// Event is one assignment lifecycle event. Events are appended to an
// ordered, durable, replayable log and are never deleted after consumption.
type Event struct {
	// Kind is the event type; it selects the payload shape.
	Kind Kind

	// OrderID is the order the event belongs to. Events for the same order
	// are partitioned together so their relative order is preserved.
	OrderID kernel.UUID

	// DriverID is the driver involved, when the kind has one.
	DriverID *kernel.UUID

	// OccurredAt is when the event was produced.
	OccurredAt time.Time

	// Payload is the kind-specific payload, nil for kinds without one.
	Payload any
}

// NewOrderReady builds the event announcing a fresh order to the dispatch worker.
func NewOrderReady(orderID kernel.UUID, pickup kernel.Location, weightGrams int, now time.Time) Event {
	return Event{
		Kind:       KindNewOrderReady,
		OrderID:    orderID,
		OccurredAt: now,
		Payload: NewOrderReadyPayload{
			PickupLat:   pickup.Latitude(),
			PickupLng:   pickup.Longitude(),
			WeightGrams: weightGrams,
		},
	}
}

// OfferAccepted builds the event recording an acceptance by driverID.
func OfferAccepted(orderID kernel.UUID, driverID kernel.UUID, now time.Time) Event {
	return Event{Kind: KindOfferAccepted, OrderID: orderID, DriverID: &driverID, OccurredAt: now}
}

// OfferRefused builds the event recording a refusal by driverID.
func OfferRefused(orderID kernel.UUID, driverID kernel.UUID, now time.Time) Event {
	return Event{Kind: KindOfferRefused, OrderID: orderID, DriverID: &driverID, OccurredAt: now}
}

// OfferExpired builds the event recording that driverID's offer lapsed.
func OfferExpired(orderID kernel.UUID, driverID kernel.UUID, now time.Time) Event {
	return Event{Kind: KindOfferExpired, OrderID: orderID, DriverID: &driverID, OccurredAt: now}
}

// ManuallyAssigned builds the event recording an administrative proposal of
// the order to driverID by actorID.
func ManuallyAssigned(orderID kernel.UUID, driverID kernel.UUID, actorID kernel.UUID, now time.Time) Event {
	return Event{
		Kind:       KindManuallyAssigned,
		OrderID:    orderID,
		DriverID:   &driverID,
		OccurredAt: now,
		Payload:    ManuallyAssignedPayload{ActorID: actorID.String()},
	}
}

// Completed builds the terminal event for a delivered mission.
func Completed(orderID kernel.UUID, driverID kernel.UUID, now time.Time) Event {
	return Event{Kind: KindCompleted, OrderID: orderID, DriverID: &driverID, OccurredAt: now}
}

// CancelledByAdmin builds the terminal event for an administrative cancellation.
func CancelledByAdmin(orderID kernel.UUID, actorID kernel.UUID, now time.Time) Event {
	return Event{
		Kind:       KindCancelledByAdmin,
		OrderID:    orderID,
		OccurredAt: now,
		Payload:    CancelledByAdminPayload{ActorID: actorID.String()},
	}
}

// CancelledBySystem builds the terminal escalation event.
func CancelledBySystem(orderID kernel.UUID, reason string, now time.Time) Event {
	return Event{
		Kind:       KindCancelledBySystem,
		OrderID:    orderID,
		OccurredAt: now,
		Payload:    CancelledBySystemPayload{Reason: reason},
	}
}

// Failed builds the terminal event for an unfinishable mission.
func Failed(orderID kernel.UUID, driverID kernel.UUID, reason string, now time.Time) Event {
	return Event{
		Kind:       KindFailed,
		OrderID:    orderID,
		DriverID:   &driverID,
		OccurredAt: now,
		Payload:    FailedPayload{Reason: reason},
	}
}

// envelope is the wire representation of an Event.
type envelope struct {
	Type      Kind            `json:"type"`
	OrderID   string          `json:"orderId"`
	DriverID  *string         `json:"driverId,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Marshal encodes the event into its wire envelope.
func (e Event) Marshal() ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}

	env := envelope{
		Type:      e.Kind,
		OrderID:   e.OrderID.String(),
		Timestamp: e.OccurredAt,
	}
	if e.DriverID != nil {
		s := e.DriverID.String()
		env.DriverID = &s
	}
	if e.Payload != nil {
		raw, err := json.Marshal(e.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", e.Kind, err)
		}
		env.Payload = raw
	}

	return json.Marshal(env)
}

// Unmarshal decodes a wire envelope into a typed Event, selecting the
// payload shape by kind. Unknown kinds and malformed identifiers are errors;
// the consumer logs and skips such messages rather than crashing.
func Unmarshal(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Event{}, fmt.Errorf("decode lifecycle envelope: %w", err)
	}

	if err := env.Type.Validate(); err != nil {
		return Event{}, err
	}

	orderID, err := kernel.UUIDFromString(env.OrderID)
	if err != nil {
		return Event{}, fmt.Errorf("decode order id: %w", err)
	}

	e := Event{
		Kind:       env.Type,
		OrderID:    orderID,
		OccurredAt: env.Timestamp,
	}

	if env.DriverID != nil {
		driverID, idErr := kernel.UUIDFromString(*env.DriverID)
		if idErr != nil {
			return Event{}, fmt.Errorf("decode driver id: %w", idErr)
		}
		e.DriverID = &driverID
	}

	if len(env.Payload) > 0 {
		payload, payloadErr := decodePayload(env.Type, env.Payload)
		if payloadErr != nil {
			return Event{}, payloadErr
		}
		e.Payload = payload
	}

	return e, nil
}

// Validate checks the structural invariants of the event: a known kind, a
// constructed order id, and a driver id on the kinds that require one.
func (e Event) Validate() error {
	if err := e.Kind.Validate(); err != nil {
		return err
	}
	if err := e.OrderID.Validate(); err != nil {
		return err
	}

	switch e.Kind {
	case KindOfferAccepted, KindOfferRefused, KindOfferExpired, KindManuallyAssigned, KindCompleted, KindFailed:
		if e.DriverID == nil {
			return errs.NewValueIsRequiredError(fmt.Sprintf("driver id for %s event", e.Kind))
		}
		if err := e.DriverID.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func decodePayload(kind Kind, raw json.RawMessage) (any, error) {
	var (
		payload any
		err     error
	)

	switch kind {
	case KindNewOrderReady:
		var p NewOrderReadyPayload
		err = json.Unmarshal(raw, &p)
		payload = p
	case KindManuallyAssigned:
		var p ManuallyAssignedPayload
		err = json.Unmarshal(raw, &p)
		payload = p
	case KindCancelledByAdmin:
		var p CancelledByAdminPayload
		err = json.Unmarshal(raw, &p)
		payload = p
	case KindCancelledBySystem:
		var p CancelledBySystemPayload
		err = json.Unmarshal(raw, &p)
		payload = p
	case KindFailed:
		var p FailedPayload
		err = json.Unmarshal(raw, &p)
		payload = p
	default:
		// kinds without a payload ignore stray payload bytes
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", kind, err)
	}
	return payload, nil
}
