package fanout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"chat-backend/internal/models"
	"chat-backend/internal/presence"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type pushed struct {
	connID  string
	event   models.EventType
	payload any
}

type fakePusher struct {
	mu     sync.Mutex
	pushes []pushed
	fail   map[string]bool
}

func (p *fakePusher) Push(connID string, event models.EventType, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail[connID] {
		return errors.New("client disconnected")
	}
	p.pushes = append(p.pushes, pushed{connID, event, payload})
	return nil
}

func (p *fakePusher) connIDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, 0, len(p.pushes))
	for _, ps := range p.pushes {
		ids = append(ids, ps.connID)
	}
	return ids
}

func TestDispatchGroupExcludesSenderAndOffline(t *testing.T) {
	registry := presence.NewRegistry()
	registry.OnConnect("u1", "c1") // sender
	registry.OnConnect("u2", "c2")
	registry.OnConnect("u3", "c3")
	registry.OnConnect("u5", "c5")
	// u4 offline

	pusher := &fakePusher{}
	d := NewDispatcher(registry, pusher)

	res := d.Dispatch(context.Background(), models.EventNewGroupMessage, "hi", []string{"u1", "u2", "u3", "u4", "u5"}, "u1")

	assert.Equal(t, Result{Delivered: 3, Skipped: 1}, res)
	assert.Equal(t, []string{"c2", "c3", "c5"}, pusher.connIDs())
}

func TestDispatchDirect(t *testing.T) {
	registry := presence.NewRegistry()
	registry.OnConnect("u2", "c2")
	pusher := &fakePusher{}
	d := NewDispatcher(registry, pusher)

	res := d.ToUser(context.Background(), models.EventNewMessage, map[string]string{"content": "hey"}, "u2")
	assert.Equal(t, 1, res.Delivered)
	assert.Equal(t, models.EventNewMessage, pusher.pushes[0].event)

	res = d.ToUser(context.Background(), models.EventNewMessage, nil, "u9")
	assert.Equal(t, Result{Skipped: 1}, res)
}

func TestDispatchPushFailureDoesNotAbort(t *testing.T) {
	registry := presence.NewRegistry()
	registry.OnConnect("u1", "c1")
	registry.OnConnect("u2", "c2")
	registry.OnConnect("u3", "c3")
	pusher := &fakePusher{fail: map[string]bool{"c2": true}}
	d := NewDispatcher(registry, pusher)

	res := d.Dispatch(context.Background(), models.EventTyping, nil, []string{"u1", "u2", "u3"}, "")

	assert.Equal(t, Result{Delivered: 2, Failed: 1}, res)
	assert.Equal(t, []string{"c1", "c3"}, pusher.connIDs())
}

func TestDispatchDeduplicatesTargets(t *testing.T) {
	registry := presence.NewRegistry()
	registry.OnConnect("u1", "c1")
	pusher := &fakePusher{}
	d := NewDispatcher(registry, pusher)

	res := d.Dispatch(context.Background(), models.EventPollUpdated, nil, []string{"u1", "u1", ""}, "")
	assert.Equal(t, 1, res.Delivered)
}

func TestDispatchPreservesOrderPerTarget(t *testing.T) {
	registry := presence.NewRegistry()
	registry.OnConnect("u2", "c2")
	pusher := &fakePusher{}
	d := NewDispatcher(registry, pusher)

	d.ToUser(context.Background(), models.EventNewMessage, 1, "u2")
	d.ToUser(context.Background(), models.EventPollUpdated, 2, "u2")

	assert.Equal(t, models.EventNewMessage, pusher.pushes[0].event)
	assert.Equal(t, models.EventPollUpdated, pusher.pushes[1].event)
}

func TestToChatUsesMembershipOrder(t *testing.T) {
	ids := []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()}
	chat := &models.Chat{IsGroup: true, Participants: ids}

	registry := presence.NewRegistry()
	for i, id := range ids {
		registry.OnConnect(id.Hex(), string(rune('a'+i)))
	}
	pusher := &fakePusher{}
	d := NewDispatcher(registry, pusher)

	res := d.ToChat(context.Background(), models.EventNewGroupMessage, nil, chat, ids[1].Hex())
	assert.Equal(t, 2, res.Delivered)
	assert.Equal(t, []string{"a", "c"}, pusher.connIDs())
}

func TestDispatcherMetricsAccumulate(t *testing.T) {
	registry := presence.NewRegistry()
	registry.OnConnect("u1", "c1")
	registry.OnConnect("u2", "c2")
	registry.OnConnect("u3", "c3")

	d := NewDispatcher(registry, &fakePusher{fail: map[string]bool{"c3": true}})
	d.Dispatch(context.Background(), models.EventNewGroupMessage, "hi", []string{"u1", "u2", "u3", "u4"}, "u1")
	d.ToUser(context.Background(), models.EventNewMessage, "hi", "u2")

	m := d.Metrics()
	assert.Equal(t, int64(2), m.Dispatches)
	assert.Equal(t, int64(2), m.Delivered)
	assert.Equal(t, int64(1), m.Skipped)
	assert.Equal(t, int64(1), m.Failed)
	assert.Equal(t, 2, m.PeakRecipients)
	assert.GreaterOrEqual(t, m.PeakTime, time.Duration(0))
}
