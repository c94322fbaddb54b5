package events

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog/log"
)

// Emitter publishes domain events. Emit never fails; publish errors are
// logged and the event is dropped.
type Emitter interface {
	Emit(typ string, payload any)
}

type Nop struct{}

func (Nop) Emit(string, any) {}

type PublisherEmitter struct {
	Pub   message.Publisher
	Topic string
}

func NewPublisherEmitter(pub message.Publisher) *PublisherEmitter {
	return &PublisherEmitter{Pub: pub, Topic: TopicOrchestrateEvents}
}

func (e *PublisherEmitter) Emit(typ string, payload any) {
	b, err := Encode(typ, payload)
	if err != nil {
		log.Warn().Err(err).Str("type", typ).Msg("drop event")
		return
	}
	if err := e.Pub.Publish(e.Topic, message.NewMessage(watermill.NewUUID(), b)); err != nil {
		log.Warn().Err(err).Str("type", typ).Msg("publish event")
	}
}

// OrNop returns e, or a no-op emitter when e is nil.
func OrNop(e Emitter) Emitter {
	if e == nil {
		return Nop{}
	}
	return e
}
