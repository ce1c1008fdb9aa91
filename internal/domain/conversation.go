package domain

import (
	"fmt"
	"time"
)

const ConversationVersion = 1

// Conversation is the shared turn log. It only grows at the tail; the one
// in-place mutation allowed is a user turn's status transition.
type Conversation struct {
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
	Turns     []Turn    `json:"turns"`
}

func NewConversation() Conversation {
	return Conversation{Version: ConversationVersion, Turns: []Turn{}}
}

func (c *Conversation) Append(turn Turn, now time.Time) error {
	if err := turn.validate(); err != nil {
		return err
	}
	for _, existing := range c.Turns {
		if existing.ID == turn.ID {
			return fmt.Errorf("%w: duplicate turn id %s", ErrInvalidInput, turn.ID)
		}
	}
	if turn.Role == RoleCLI {
		parent, ok := c.FindTurn(turn.InReplyTo())
		if !ok || !parent.IsUser() {
			return fmt.Errorf("%w: in_reply_to %s", ErrTurnNotFound, turn.InReplyTo())
		}
	}

	if c.Version == 0 {
		c.Version = ConversationVersion
	}
	c.Turns = append(c.Turns, turn)
	c.UpdatedAt = now.UTC()
	return nil
}

func (c Conversation) FindTurn(id string) (Turn, bool) {
	for _, turn := range c.Turns {
		if turn.ID == id {
			return turn, true
		}
	}
	return Turn{}, false
}

// FindReply returns the last cli turn answering id, so a re-reply
// supersedes earlier ones.
func (c Conversation) FindReply(id string) (Turn, bool) {
	for i := len(c.Turns) - 1; i >= 0; i-- {
		turn := c.Turns[i]
		if turn.Role == RoleCLI && turn.InReplyTo() == id {
			return turn, true
		}
	}
	return Turn{}, false
}

// FirstReply returns the earliest cli turn answering id.
func (c Conversation) FirstReply(id string) (Turn, bool) {
	for _, turn := range c.Turns {
		if turn.Role == RoleCLI && turn.InReplyTo() == id {
			return turn, true
		}
	}
	return Turn{}, false
}

// Cancel flips the targeted user turn to cancelled.
func (c *Conversation) Cancel(id string, now time.Time) error {
	for i := range c.Turns {
		if c.Turns[i].ID != id {
			continue
		}
		if !c.Turns[i].IsUser() {
			return fmt.Errorf("%w: %s", ErrNotUserTurn, id)
		}
		c.Turns[i].Status = TurnCancelled
		c.UpdatedAt = now.UTC()
		return nil
	}
	return fmt.Errorf("%w: %s", ErrTurnNotFound, id)
}

// TurnStatus derives the externally visible status of a user turn.
// Cancellation wins over a late reply.
func (c Conversation) TurnStatus(id string) (TurnStatus, error) {
	turn, ok := c.FindTurn(id)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrTurnNotFound, id)
	}
	if !turn.IsUser() {
		return "", fmt.Errorf("%w: %s", ErrNotUserTurn, id)
	}
	if turn.Status == TurnCancelled {
		return TurnCancelled, nil
	}
	if _, ok := c.FindReply(id); ok {
		return TurnResponded, nil
	}
	return TurnPending, nil
}

// Unanswered lists pending user turns that have no reply yet, oldest first.
func (c Conversation) Unanswered() []Turn {
	answered := map[string]struct{}{}
	for _, turn := range c.Turns {
		if turn.Role == RoleCLI {
			answered[turn.InReplyTo()] = struct{}{}
		}
	}

	pending := make([]Turn, 0)
	for _, turn := range c.Turns {
		if !turn.IsUser() || turn.Status == TurnCancelled {
			continue
		}
		if _, ok := answered[turn.ID]; ok {
			continue
		}
		pending = append(pending, turn)
	}
	return pending
}

// WatcherActive reports whether a heartbeat seen at lastSeen is still
// within ttl of now. ok is false when no heartbeat was ever recorded.
func WatcherActive(lastSeen time.Time, ok bool, now time.Time, ttl time.Duration) bool {
	return ok && now.Sub(lastSeen) <= ttl
}
