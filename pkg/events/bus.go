package events

import (
	"context"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	gochannel "github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/pkg/errors"
)

// Bus is an in-process pub/sub for orchestrate events. Nothing leaves the
// process; handlers are the only consumers.
type Bus struct {
	Router     *message.Router
	Publisher  message.Publisher
	Subscriber message.Subscriber

	started atomic.Bool
}

func NewInMemoryBus() (*Bus, error) {
	logger := watermill.NopLogger{}
	// Publish returns only after every handler acked, so closing the router
	// right after the last Emit loses nothing.
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer:            1024,
		BlockPublishUntilSubscriberAck: true,
	}, logger)

	r, err := message.NewRouter(message.RouterConfig{}, logger)
	if err != nil {
		return nil, errors.Wrap(err, "new watermill router")
	}
	return &Bus{Router: r, Publisher: pubsub, Subscriber: pubsub}, nil
}

// AddHandler registers a consumer. Call it before Start.
func (b *Bus) AddHandler(name, topic string, handler func(*message.Message) error) {
	b.Router.AddConsumerHandler(name, topic, b.Subscriber, handler)
}

// Start runs the router in the background and returns once it accepts
// messages. The returned func closes the router and waits for Run to return.
// Cancelling ctx also closes the router.
func (b *Bus) Start(ctx context.Context) (func(), error) {
	if !b.started.CompareAndSwap(false, true) {
		return nil, errors.New("event bus already started")
	}

	errCh := make(chan error, 1)
	stopped := make(chan struct{})
	go func() {
		errCh <- b.Router.Run(ctx)
		close(stopped)
	}()
	go func() {
		select {
		case <-ctx.Done():
			_ = b.Router.Close()
		case <-stopped:
		}
	}()

	select {
	case <-b.Router.Running():
	case err := <-errCh:
		if err == nil {
			err = errors.New("router stopped before running")
		}
		return nil, errors.Wrap(err, "start event router")
	case <-ctx.Done():
		_ = b.Router.Close()
		<-errCh
		return nil, ctx.Err()
	}

	return func() {
		_ = b.Router.Close()
		<-errCh
	}, nil
}
