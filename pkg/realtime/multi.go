package realtime

import (
	"context"

	"liyu1981.xyz/sos-response-service/pkg/sos"
)

// Multi publishes to every broadcaster in order.
type Multi []sos.Broadcaster

func (m Multi) Publish(ctx context.Context, topic, event string, payload any) {
	for _, b := range m {
		if b != nil {
			b.Publish(ctx, topic, event, payload)
		}
	}
}
