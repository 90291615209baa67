package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"backoffice/internal/core/domain/model/kernel"
	"backoffice/internal/pkg/errs"
)

// MaxAttempts bounds how many times one event is processed, including retries.
const MaxAttempts = 5

var (
	ErrEventIsNotConstructed = errors.New("Event must be created via NewEvent constructor")
	ErrEventNotRetryable     = errors.New("webhook event cannot be retried")
)

type Source string

const (
	SourceMaystro    Source = "maystro"
	SourceEcoManager Source = "ecomanager"
)

func ParseSource(s string) (Source, error) {
	switch src := Source(strings.ToLower(strings.TrimSpace(s))); src {
	case SourceMaystro, SourceEcoManager:
		return src, nil
	default:
		return "", errs.NewValueIsInvalidErrorWithCause("source", fmt.Errorf("%q is not a webhook source", s))
	}
}

type Status string

const (
	StatusReceived  Status = "received"
	StatusProcessed Status = "processed"
	StatusFailed    Status = "failed"
	StatusIgnored   Status = "ignored"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusReceived, StatusProcessed, StatusFailed, StatusIgnored:
		return st, nil
	default:
		return "", errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a webhook status", s))
	}
}

// Event is one webhook delivery.
type Event struct {
	id          kernel.UUID
	source      Source
	externalID  string
	eventType   string
	payload     json.RawMessage
	status      Status
	attempts    int
	lastError   string
	receivedAt  time.Time
	processedAt *time.Time

	isConstructed bool
}

// NewEvent records a delivery as received. payload must be valid JSON.
func NewEvent(id kernel.UUID, source Source, externalID, eventType string, payload []byte, receivedAt time.Time) (*Event, error) {
	e := &Event{
		id:            id,
		source:        source,
		externalID:    strings.TrimSpace(externalID),
		eventType:     strings.TrimSpace(eventType),
		status:        StatusReceived,
		receivedAt:    receivedAt.UTC(),
		isConstructed: true,
	}

	var errList []error
	if err := id.Validate(); err != nil {
		errList = append(errList, err)
	}
	if _, err := ParseSource(string(source)); err != nil {
		errList = append(errList, err)
	}
	if e.eventType == "" {
		errList = append(errList, errs.NewValueIsRequiredError("eventType"))
	}
	if !json.Valid(payload) {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("payload", errors.New("not valid JSON")))
	}
	if err := errors.Join(errList...); err != nil {
		return nil, err
	}

	e.payload = append(json.RawMessage(nil), payload...)
	return e, nil
}

// RestoreEvent rebuilds an event from persistence.
func RestoreEvent(
	id kernel.UUID,
	source Source,
	externalID, eventType string,
	payload []byte,
	status Status,
	attempts int,
	lastError string,
	receivedAt time.Time,
	processedAt *time.Time,
) (*Event, error) {
	e, err := NewEvent(id, source, externalID, eventType, payload, receivedAt)
	if err != nil {
		return nil, err
	}
	if _, err = ParseStatus(string(status)); err != nil {
		return nil, err
	}
	e.status = status
	e.attempts = attempts
	e.lastError = lastError
	e.processedAt = processedAt
	return e, nil
}

func (e *Event) Validate() error {
	if e == nil || !e.isConstructed {
		return ErrEventIsNotConstructed
	}
	return nil
}

func (e *Event) ID() kernel.UUID          { return e.id }
func (e *Event) Source() Source           { return e.source }
func (e *Event) ExternalID() string       { return e.externalID }
func (e *Event) EventType() string        { return e.eventType }
func (e *Event) Payload() json.RawMessage { return e.payload }
func (e *Event) Status() Status           { return e.status }
func (e *Event) Attempts() int            { return e.attempts }
func (e *Event) LastError() string        { return e.lastError }
func (e *Event) ReceivedAt() time.Time    { return e.receivedAt }
func (e *Event) ProcessedAt() *time.Time  { return e.processedAt }

// CanRetry reports whether an administrator may reprocess the event.
func (e *Event) CanRetry() bool {
	return (e.status == StatusFailed || e.status == StatusReceived) && e.attempts < MaxAttempts
}

// StartAttempt counts a processing attempt.
func (e *Event) StartAttempt() error {
	if e.attempts >= MaxAttempts {
		return ErrEventNotRetryable
	}
	e.attempts++
	return nil
}

func (e *Event) MarkProcessed(at time.Time) {
	at = at.UTC()
	e.status = StatusProcessed
	e.lastError = ""
	e.processedAt = &at
}

// MarkIgnored records a delivery that was valid but had nothing to apply.
func (e *Event) MarkIgnored(reason string, at time.Time) {
	at = at.UTC()
	e.status = StatusIgnored
	e.lastError = reason
	e.processedAt = &at
}

func (e *Event) MarkFailed(cause error) {
	e.status = StatusFailed
	if cause != nil {
		e.lastError = cause.Error()
	}
}
