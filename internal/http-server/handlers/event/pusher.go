package event

import (
	"github.com/pusher/pusher-http-go/v5"
	"golang.org/x/exp/slog"
)

// PusherEvent is the hosted-Pusher backend, selected by config when no
// in-house ws hub is deployed.
type PusherEvent struct {
	log    *slog.Logger
	pusher *pusher.Client
}

func NewPusherEvent(log *slog.Logger, pusherClient *pusher.Client) *PusherEvent {
	return &PusherEvent{
		log:    log,
		pusher: pusherClient,
	}
}

func (p *PusherEvent) TriggerEvent(m Message) error {
	if err := p.pusher.Trigger(m.Channel, m.Event, m.Data); err != nil {
		p.log.Error("failed to trigger pusher event")

		return err
	}

	return nil
}
