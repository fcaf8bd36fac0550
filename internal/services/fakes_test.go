package services

import (
	"context"
	"errors"
	"mime/multipart"
	"sort"
	"strings"
	"sync"
	"testing"

	"chat-backend/internal/events"
	"chat-backend/internal/fanout"
	"chat-backend/internal/models"
	"chat-backend/internal/presence"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

/** -------------------- users -------------------- */
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*models.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeUserRepo) Search(_ context.Context, query, role string, exclude primitive.ObjectID, page, limit int64) ([]models.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []models.User
	q := strings.ToLower(query)
	for _, u := range r.users {
		if u.ID == exclude || (role != "" && u.Role != role) {
			continue
		}
		if q == "" || strings.Contains(strings.ToLower(u.FullName), q) || strings.Contains(u.Email, q) {
			matched = append(matched, *u)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].FullName < matched[j].FullName })

	total := int64(len(matched))
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *fakeUserRepo) ListVisibleTo(_ context.Context, caller *models.User) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	visible := []models.User{}
	for _, u := range r.users {
		if caller.CanSee(u) {
			visible = append(visible, *u)
		}
	}
	sort.Slice(visible, func(i, j int) bool { return visible[i].FullName < visible[j].FullName })
	return visible, nil
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return mongo.ErrNoDocuments
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

/** -------------------- communities -------------------- */
type fakeCommunityRepo struct {
	mu          sync.Mutex
	communities []models.Community
}

func (r *fakeCommunityRepo) Create(_ context.Context, c *models.Community) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	r.communities = append(r.communities, *c)
	return nil
}

func (r *fakeCommunityRepo) CreateMany(_ context.Context, cs []models.Community) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range cs {
		if cs[i].ID.IsZero() {
			cs[i].ID = primitive.NewObjectID()
		}
		r.communities = append(r.communities, cs[i])
	}
	return nil
}

func (r *fakeCommunityRepo) Existing(_ context.Context, ids []string) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	found := make(map[string]bool)
	for _, c := range r.communities {
		for _, id := range ids {
			if c.CommunityID == id {
				found[id] = true
			}
		}
	}
	return found, nil
}

func (r *fakeCommunityRepo) List(context.Context) ([]models.Community, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]models.Community{}, r.communities...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

/** -------------------- chats -------------------- */
type fakeChatRepo struct {
	mu    sync.Mutex
	chats map[primitive.ObjectID]*models.Chat
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{chats: make(map[primitive.ObjectID]*models.Chat)}
}

func cloneChat(c *models.Chat) *models.Chat {
	cp := *c
	cp.Participants = append([]primitive.ObjectID{}, c.Participants...)
	cp.UnreadMessages = make(map[string]int, len(c.UnreadMessages))
	for k, v := range c.UnreadMessages {
		cp.UnreadMessages[k] = v
	}
	return &cp
}

func (r *fakeChatRepo) Create(_ context.Context, chat *models.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if chat.ID.IsZero() {
		chat.ID = primitive.NewObjectID()
	}
	r.chats[chat.ID] = cloneChat(chat)
	return nil
}

func (r *fakeChatRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return cloneChat(c), nil
}

func (r *fakeChatRepo) FindDirect(_ context.Context, a, b primitive.ObjectID) (*models.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.chats {
		if !c.IsGroup && c.HasParticipant(a.Hex()) && c.HasParticipant(b.Hex()) {
			return cloneChat(c), nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeChatRepo) ListForUser(_ context.Context, userID primitive.ObjectID) ([]models.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Chat
	for _, c := range r.chats {
		if c.HasParticipant(userID.Hex()) {
			out = append(out, *cloneChat(c))
		}
	}
	return out, nil
}

func (r *fakeChatRepo) update(id primitive.ObjectID, fn func(c *models.Chat)) (*models.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	fn(c)
	return cloneChat(c), nil
}

func (r *fakeChatRepo) Rename(_ context.Context, id primitive.ObjectID, name string) (*models.Chat, error) {
	return r.update(id, func(c *models.Chat) { c.GroupName = name })
}

func (r *fakeChatRepo) AddParticipant(_ context.Context, id, userID primitive.ObjectID) (*models.Chat, error) {
	return r.update(id, func(c *models.Chat) {
		if !c.HasParticipant(userID.Hex()) {
			c.Participants = append(c.Participants, userID)
		}
	})
}

func (r *fakeChatRepo) RemoveParticipant(_ context.Context, id, userID primitive.ObjectID) (*models.Chat, error) {
	return r.update(id, func(c *models.Chat) {
		kept := c.Participants[:0]
		for _, p := range c.Participants {
			if p != userID {
				kept = append(kept, p)
			}
		}
		c.Participants = kept
	})
}

func (r *fakeChatRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.chats, id)
	return nil
}

func (r *fakeChatRepo) RecordMessage(_ context.Context, id primitive.ObjectID, preview string, recipients []string) error {
	_, err := r.update(id, func(c *models.Chat) {
		c.LatestMessage = preview
		if c.UnreadMessages == nil {
			c.UnreadMessages = map[string]int{}
		}
		for _, u := range recipients {
			c.UnreadMessages[u]++
		}
	})
	return err
}

func (r *fakeChatRepo) ResetUnread(_ context.Context, id primitive.ObjectID, userID string) error {
	_, err := r.update(id, func(c *models.Chat) { c.UnreadMessages[userID] = 0 })
	return err
}

/** -------------------- messages -------------------- */
type fakeMessageRepo struct {
	mu       sync.Mutex
	messages map[primitive.ObjectID]*models.Message
	order    []primitive.ObjectID

	// beforeSave runs inside SavePoll before the version check
	beforeSave func(stored *models.Message)
	saves      int
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: make(map[primitive.ObjectID]*models.Message)}
}

func cloneMessage(m *models.Message) *models.Message {
	cp := *m
	cp.Poll = m.Poll.Clone()
	return &cp
}

func (r *fakeMessageRepo) Create(_ context.Context, msg *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	r.messages[msg.ID] = cloneMessage(msg)
	r.order = append(r.order, msg.ID)
	return nil
}

func (r *fakeMessageRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return cloneMessage(m), nil
}

func (r *fakeMessageRepo) List(_ context.Context, chatID primitive.ObjectID, search string, page, limit int64) ([]models.Message, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []models.Message
	for i := len(r.order) - 1; i >= 0; i-- {
		m, ok := r.messages[r.order[i]]
		if !ok || m.ChatID != chatID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(m.Content), strings.ToLower(search)) {
			continue
		}
		matched = append(matched, *cloneMessage(m))
	}
	total := int64(len(matched))
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *fakeMessageRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.messages, id)
	return nil
}

func (r *fakeMessageRepo) DeleteByChat(_ context.Context, chatID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, m := range r.messages {
		if m.ChatID == chatID {
			delete(r.messages, id)
		}
	}
	return nil
}

func (r *fakeMessageRepo) SavePoll(_ context.Context, id primitive.ObjectID, poll *models.Poll, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[id]
	if !ok || m.Poll == nil {
		return mongo.ErrNoDocuments
	}
	if r.beforeSave != nil {
		r.beforeSave(m)
	}
	if m.Poll.Version != expectedVersion {
		return mongo.ErrNoDocuments
	}
	m.Poll = poll.Clone()
	r.saves++
	return nil
}

/** -------------------- edges -------------------- */
type fakeMedia struct {
	uploads []string
	err     error
}

func (m *fakeMedia) Upload(_ context.Context, folder string, file *multipart.FileHeader) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.uploads = append(m.uploads, folder+"/"+file.Filename)
	return "http://media.test/" + folder + "/" + file.Filename, nil
}

type pushed struct {
	connID  string
	event   models.EventType
	payload any
}

type fakePusher struct {
	mu     sync.Mutex
	pushes []pushed
	failOn map[string]bool
}

func (p *fakePusher) Push(connID string, event models.EventType, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failOn[connID] {
		return errors.New("connection gone")
	}
	p.pushes = append(p.pushes, pushed{connID: connID, event: event, payload: payload})
	return nil
}

// recipients lists the users that received event, in push order
func (p *fakePusher) recipients(event models.EventType) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, ps := range p.pushes {
		if ps.event == event {
			out = append(out, strings.TrimPrefix(ps.connID, "conn-"))
		}
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Type
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

/** -------------------- fixture -------------------- */
type fixture struct {
	users     *fakeUserRepo
	chats     *fakeChatRepo
	messages  *fakeMessageRepo
	media     *fakeMedia
	registry  *presence.Registry
	pusher    *fakePusher
	publisher *recordingPublisher

	dispatcher *fanout.Dispatcher
}

func newFixture() *fixture {
	f := &fixture{
		users:     newFakeUserRepo(),
		chats:     newFakeChatRepo(),
		messages:  newFakeMessageRepo(),
		media:     &fakeMedia{},
		registry:  presence.NewRegistry(),
		pusher:    &fakePusher{failOn: map[string]bool{}},
		publisher: &recordingPublisher{},
	}
	f.dispatcher = fanout.NewDispatcher(f.registry, f.pusher)
	return f
}

func (f *fixture) addUser(t *testing.T, name string) string {
	t.Helper()
	u := &models.User{FullName: name, Email: strings.ToLower(name) + "@example.com", Role: models.RoleUser}
	if err := f.users.Create(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	return u.ID.Hex()
}

func (f *fixture) online(userIDs ...string) {
	for _, id := range userIDs {
		f.registry.OnConnect(id, "conn-"+id)
	}
}

func (f *fixture) addChat(t *testing.T, group bool, members ...string) *models.Chat {
	t.Helper()
	ids := make([]primitive.ObjectID, 0, len(members))
	for _, m := range members {
		oid, err := primitive.ObjectIDFromHex(m)
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, oid)
	}
	chat := newChat(group, ids)
	if group {
		chat.GroupName = "group"
		admin := ids[len(ids)-1]
		chat.GroupAdmin = &admin
	}
	if err := f.chats.Create(context.Background(), chat); err != nil {
		t.Fatal(err)
	}
	return chat
}

func (f *fixture) addPoll(t *testing.T, chat *models.Chat, sender string, options ...string) string {
	t.Helper()
	poll, err := models.NewPoll("Which?", options)
	if err != nil {
		t.Fatal(err)
	}
	senderID, _ := primitive.ObjectIDFromHex(sender)
	msg := &models.Message{ChatID: chat.ID, SenderID: senderID, MessageType: models.MessageTypePoll, Poll: poll}
	if err := f.messages.Create(context.Background(), msg); err != nil {
		t.Fatal(err)
	}
	return msg.ID.Hex()
}

func (f *fixture) pollService() *PollService {
	return NewPollService(f.messages, f.chats, f.dispatcher, f.publisher)
}

func (f *fixture) messageService() *MessageService {
	return NewMessageService(f.messages, f.chats, f.media, f.dispatcher, f.publisher)
}

func (f *fixture) chatService() *ChatService {
	return NewChatService(f.chats, f.messages, f.users, f.media, f.publisher)
}

func (f *fixture) typingService() *TypingService {
	return NewTypingService(f.chats, f.dispatcher)
}

func mustID(t *testing.T, hex string) primitive.ObjectID {
	t.Helper()
	oid, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		t.Fatal(err)
	}
	return oid
}
