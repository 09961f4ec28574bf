package submission

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	pkgerrors "github.com/angelmondragon/quotecart/pkg/errors"
)

const defaultPublishTimeout = 10 * time.Second

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

// PubSubSubmitter publishes payloads to a topic for asynchronous processing.
type PubSubSubmitter struct {
	pub     publisher
	timeout time.Duration
}

// NewPubSubSubmitter wraps a Pub/Sub publisher.
func NewPubSubSubmitter(p *gcppubsub.Publisher) (*PubSubSubmitter, error) {
	if p == nil {
		return nil, errors.New("pubsub publisher is required")
	}
	return &PubSubSubmitter{pub: &gcpPublisher{Publisher: p}, timeout: defaultPublishTimeout}, nil
}

// Submit publishes the payload and waits for the server acknowledgement.
func (s *PubSubSubmitter) Submit(ctx context.Context, payload Payload) (Result, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal submission")
	}

	msg := &gcppubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"kind":          string(payload.Kind),
			"submission_id": payload.SubmissionID,
			"submitted_at":  payload.SubmittedAt.Format(time.RFC3339Nano),
		},
	}

	publishCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	result := s.pub.Publish(publishCtx, msg)
	if result == nil {
		return Result{}, pkgerrors.New(pkgerrors.CodeDependency, "publisher returned no result")
	}
	if _, err := result.Get(publishCtx); err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "publish submission")
	}
	return Result{ID: payload.SubmissionID, Status: "queued"}, nil
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return p.Publisher.Publish(ctx, msg)
}
