// Package events carries applicant-created notifications to dashboards and
// downstream consumers.
package events

import (
	"context"
	"errors"
	"time"
)

// TypeApplicantCreated is the AMQP message type. The SSE stream names the
// same event "applicant-created" (see webserver).
const TypeApplicantCreated = "applicant.created"

// ApplicantCreated is deliberately free of contact details; listeners fetch
// the record through the API if they need it.
type ApplicantCreated struct {
	ID           uint      `json:"id"`
	PositionType string    `json:"position_type"`
	Department   string    `json:"department"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev ApplicantCreated) error
}

// Fanout publishes to every publisher and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, ev ApplicantCreated) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
