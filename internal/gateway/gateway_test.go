package gateway

import (
	"testing"

	"github.com/DoyleJ11/debate-lobby-backend/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func recv(t *testing.T, c *Client) types.ServerMessage {
	t.Helper()
	select {
	case msg, ok := <-c.Outbox():
		require.True(t, ok, "outbox closed")
		return msg
	default:
		t.Fatalf("no message queued")
		return types.ServerMessage{}
	}
}

func TestGateway_GroupAndMemberDelivery(t *testing.T) {
	g := New(zaptest.NewLogger(t), 4)
	a := g.Attach("L1", "alice")
	b := g.Attach("L1", "bob")
	other := g.Attach("L2", "carol")

	g.SendToGroup("L1", "lobby-updated", map[string]int{"n": 2})
	assert.Equal(t, "lobby-updated", recv(t, a).Event)
	assert.Equal(t, "lobby-updated", recv(t, b).Event)
	assert.Len(t, other.Outbox(), 0)

	g.SendToMember("L1", "bob", "sync-game-state", nil)
	assert.Equal(t, "sync-game-state", recv(t, b).Event)
	assert.Len(t, a.Outbox(), 0)

	g.SendToMember("L1", "nobody", "sync-game-state", nil) // no-op
	assert.Equal(t, 2, g.Members("L1"))
}

func TestGateway_ReplacedSocketDoesNotReportDisconnect(t *testing.T) {
	g := New(zaptest.NewLogger(t), 4)
	first := g.Attach("L1", "alice")
	second := g.Attach("L1", "alice")

	_, ok := <-first.Outbox()
	assert.False(t, ok, "old outbox closed on replace")
	assert.NotEqual(t, first.ID, second.ID)

	assert.False(t, g.Detach(first))
	assert.True(t, g.Detach(second))
	assert.False(t, g.Detach(second))
	assert.Equal(t, 0, g.Members("L1"))
}

func TestGateway_DropsSlowClient(t *testing.T) {
	g := New(zaptest.NewLogger(t), 1)
	slow := g.Attach("L1", "alice")
	fast := g.Attach("L1", "bob")

	g.SendToGroup("L1", "game-timer", 3)
	recv(t, fast)
	g.SendToGroup("L1", "game-timer", 2)

	assert.Equal(t, 1, g.Members("L1"))
	<-slow.Outbox() // the first message is still delivered
	_, ok := <-slow.Outbox()
	assert.False(t, ok)

	// the reader of a dropped socket still detaches as the current client
	assert.True(t, g.Detach(slow))
	assert.Equal(t, "game-timer", recv(t, fast).Event)
}
