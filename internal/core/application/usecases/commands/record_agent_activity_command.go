package commands

import (
	"errors"
	"strings"

	"backoffice/internal/core/domain/model/kernel"
	"backoffice/internal/pkg/guard"
)

var ErrRecordAgentActivityCommandIsNotConstructed = errors.New(
	"RecordAgentActivityCommand must be created via NewRecordAgentActivityCommand constructor",
)

// RecordAgentActivityCommand is one heartbeat from an agent session.
type RecordAgentActivityCommand struct {
	agentID      kernel.UUID
	sessionToken string

	guard guard.ConstructorGuard
}

// NewRecordAgentActivityCommand accepts an empty session token; heartbeats
// from API clients without a session are still recorded.
func NewRecordAgentActivityCommand(agentID kernel.UUID, sessionToken string) (RecordAgentActivityCommand, error) {
	if err := agentID.Validate(); err != nil {
		return RecordAgentActivityCommand{}, err
	}

	return RecordAgentActivityCommand{
		agentID:      agentID,
		sessionToken: strings.TrimSpace(sessionToken),
		guard:        guard.NewConstructorGuard(),
	}, nil
}

func (c *RecordAgentActivityCommand) AgentID() kernel.UUID { return c.agentID }
func (c *RecordAgentActivityCommand) SessionToken() string { return c.sessionToken }

func (c *RecordAgentActivityCommand) Validate() error {
	return c.guard.Validate(ErrRecordAgentActivityCommandIsNotConstructed)
}
