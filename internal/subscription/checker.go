// Package subscription defines the channel-membership boundary. The core
// stores membership results but never calls the chat platform itself; a
// connector supplies a Checker when it can answer membership queries.
package subscription

import "context"

// Checker answers whether a user is a member of the promoted channel.
type Checker interface {
	IsChannelMember(ctx context.Context, userID int64) (bool, error)
}

// NoopChecker reports every user as a member. Used when no external
// membership source is wired in, so the subscription gate never blocks.
type NoopChecker struct{}

// IsChannelMember always reports membership.
func (NoopChecker) IsChannelMember(context.Context, int64) (bool, error) {
	return true, nil
}
