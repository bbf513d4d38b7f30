package discord_bot

import "context"

type Bot interface {
	// Start blocks until ctx is cancelled, then tears the session down.
	Start(ctx context.Context) error
}
