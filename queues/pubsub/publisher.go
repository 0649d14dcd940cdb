package pubsub

import (
	"context"
	"encoding/json"

	"ranked-allocator/queues"

	gpubsub "cloud.google.com/go/pubsub"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// Publisher sends allocation results to a Pub/Sub topic. The client is
// created lazily on first publish.
type Publisher struct {
	projectID   string
	resultTopic string
	credsFile   string
	client      *gpubsub.Client
	topic       *gpubsub.Topic
}

func NewPublisher(projectID, resultTopic, credsFile string) *Publisher {
	return &Publisher{projectID: projectID, resultTopic: resultTopic, credsFile: credsFile}
}

func (p *Publisher) PublishResult(ctx context.Context, res *queues.AllocationResult) error {
	if p.client == nil {
		var (
			client *gpubsub.Client
			err    error
		)
		if p.credsFile != "" {
			log.Debug().Str("projectID", p.projectID).Str("topic", p.resultTopic).Str("credsFile", p.credsFile).Msg("initializing pubsub publisher with explicit credentials")
			client, err = gpubsub.NewClient(ctx, p.projectID, option.WithCredentialsFile(p.credsFile))
		} else {
			log.Debug().Str("projectID", p.projectID).Str("topic", p.resultTopic).Msg("initializing pubsub publisher with default credentials")
			client, err = gpubsub.NewClient(ctx, p.projectID)
		}
		if err != nil {
			log.Error().Err(err).Str("projectID", p.projectID).Str("topic", p.resultTopic).Msg("failed to create pubsub client for publisher")
			return err
		}
		p.client = client
		p.topic = client.Topic(p.resultTopic)
		// Results of one run must arrive in processing order.
		p.topic.EnableMessageOrdering = true
		log.Info().Str("topic", p.resultTopic).Msg("pubsub publisher initialized")
	}
	b, err := json.Marshal(res)
	if err != nil {
		log.Error().Err(err).Interface("result", res).Msg("failed to marshal allocation result")
		return err
	}
	msg := &gpubsub.Message{
		Data:       b,
		Attributes: map[string]string{"runId": res.RunID, "status": string(res.Status)},
	}
	if p.topic.EnableMessageOrdering {
		msg.OrderingKey = res.RunID
	}
	// Publish and wait for server ack
	r := p.topic.Publish(ctx, msg)
	id, err := r.Get(ctx)
	if err != nil {
		log.Error().Err(err).Str("requesterId", res.RequesterID).Str("runId", res.RunID).Msg("failed to publish allocation result")
		if msg.OrderingKey != "" {
			p.topic.ResumePublish(msg.OrderingKey)
		}
		return err
	}
	log.Debug().Str("messageID", id).Str("requesterId", res.RequesterID).Str("status", string(res.Status)).Msg("published allocation result")
	return nil
}

// Close stops the topic and releases the client.
func (p *Publisher) Close() error {
	if p.client == nil {
		return nil
	}
	p.topic.Stop()
	return p.client.Close()
}
