package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	natsbus "docuchat-be/pkg/nats"
)

// NatsFeed implements Feed on a JetStream consumer over the documents stream.
type NatsFeed struct {
	nc      *nats.Conn
	js      jetstream.JetStream
	durable string
}

var _ Feed = &NatsFeed{}

// NewNatsFeed connects to NATS. The connection itself succeeds on plain NATS
// servers, topology support is only known once Watch touches JetStream.
func NewNatsFeed(url string, durable string) (*NatsFeed, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &NatsFeed{nc: nc, js: js, durable: durable}, nil
}

func (f *NatsFeed) Watch(ctx context.Context) (<-chan Event, error) {
	consumer, err := f.js.CreateOrUpdateConsumer(ctx, natsbus.StreamName, jetstream.ConsumerConfig{
		Durable:       f.durable,
		FilterSubject: natsbus.SubjectWildcard,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverNewPolicy,
	})
	if err != nil {
		if isTopologyError(err) {
			return nil, ErrUnsupportedTopology
		}
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	out := make(chan Event, 64)

	consumeCtx, err := consumer.Consume(func(msg jetstream.Msg) {
		event, err := parseEvent(msg)
		if err != nil {
			log.Printf("Error parsing change event: %v", err)
			msg.Ack() // malformed, retrying will not help
			return
		}

		select {
		case out <- event:
			msg.Ack()
		case <-ctx.Done():
			msg.Nak()
		}
	})
	if err != nil {
		if isTopologyError(err) {
			return nil, ErrUnsupportedTopology
		}
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	go func() {
		<-ctx.Done()
		consumeCtx.Stop()
		close(out)
	}()

	return out, nil
}

func (f *NatsFeed) Close() {
	if f.nc != nil {
		f.nc.Close()
	}
}

func parseEvent(msg jetstream.Msg) (Event, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(msg.Data(), &payload); err != nil {
		return Event{}, err
	}

	rawId, _ := payload["document_id"].(string)
	documentId, err := uuid.Parse(rawId)
	if err != nil {
		return Event{}, fmt.Errorf("invalid document_id in event: %w", err)
	}

	subject := msg.Subject()
	operation := subject[strings.LastIndex(subject, ".")+1:]

	return Event{
		OperationType: operation,
		DocumentId:    documentId,
	}, nil
}

func isTopologyError(err error) bool {
	return errors.Is(err, jetstream.ErrJetStreamNotEnabled) ||
		errors.Is(err, jetstream.ErrJetStreamNotEnabledForAccount) ||
		errors.Is(err, nats.ErrJetStreamNotEnabled) ||
		errors.Is(err, nats.ErrJetStreamNotEnabledForAccount)
}
