package services

import (
	"context"
	"errors"
	"math"
	"mime/multipart"
	"net/textproto"
	"testing"

	"chat-backend/internal/events"
	"chat-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileHeader(name, contentType string) *multipart.FileHeader {
	return &multipart.FileHeader{
		Filename: name,
		Header:   textproto.MIMEHeader{"Content-Type": {contentType}},
		Size:     10,
	}
}

func TestSendDirectMessageReachesOnlyReceiver(t *testing.T) {
	f := newFixture()
	sender, receiver := f.addUser(t, "Ann"), f.addUser(t, "Bob")
	chat := f.addChat(t, false, sender, receiver)
	f.online(sender, receiver)

	msg, err := f.messageService().Send(context.Background(), SendMessageInput{
		ChatID: chat.ID.Hex(), SenderID: sender, Content: "  hello  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Content)
	assert.Equal(t, models.MessageTypeText, msg.MessageType)

	assert.Equal(t, []string{receiver}, f.pusher.recipients(models.EventNewMessage))
	assert.Empty(t, f.pusher.recipients(models.EventNewGroupMessage))

	stored, _ := f.chats.FindByID(context.Background(), chat.ID)
	assert.Equal(t, "hello", stored.LatestMessage)
	assert.Equal(t, 1, stored.UnreadMessages[receiver])
	assert.Zero(t, stored.UnreadMessages[sender])
	assert.Equal(t, []events.Type{events.MessageCreated}, f.publisher.types())
}

func TestSendGroupMessageSkipsSenderAndOffline(t *testing.T) {
	f := newFixture()
	u1, u2, u3, u4, u5 := f.addUser(t, "A"), f.addUser(t, "B"), f.addUser(t, "C"), f.addUser(t, "D"), f.addUser(t, "E")
	chat := f.addChat(t, true, u1, u2, u3, u4, u5)
	f.online(u1, u2, u3, u5)

	_, err := f.messageService().Send(context.Background(), SendMessageInput{
		ChatID: chat.ID.Hex(), SenderID: u1, Content: "hi all",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{u2, u3, u5}, f.pusher.recipients(models.EventNewGroupMessage))
}

func TestSendMessagePushFailureDoesNotFailSend(t *testing.T) {
	f := newFixture()
	u1, u2, u3 := f.addUser(t, "A"), f.addUser(t, "B"), f.addUser(t, "C")
	chat := f.addChat(t, true, u1, u2, u3)
	f.online(u2, u3)
	f.pusher.failOn["conn-"+u2] = true

	_, err := f.messageService().Send(context.Background(), SendMessageInput{
		ChatID: chat.ID.Hex(), SenderID: u1, Content: "hi",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{u3}, f.pusher.recipients(models.EventNewGroupMessage))
}

func TestSendMediaMessage(t *testing.T) {
	f := newFixture()
	u1, u2 := f.addUser(t, "A"), f.addUser(t, "B")
	chat := f.addChat(t, false, u1, u2)

	msg, err := f.messageService().Send(context.Background(), SendMessageInput{
		ChatID: chat.ID.Hex(), SenderID: u1, File: fileHeader("clip.mp4", "video/mp4"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.MessageTypeVideo, msg.MessageType)
	assert.Equal(t, "http://media.test/messages/clip.mp4", msg.Media)

	stored, _ := f.chats.FindByID(context.Background(), chat.ID)
	assert.Equal(t, msg.Media, stored.LatestMessage)
}

func TestSendMessageValidation(t *testing.T) {
	f := newFixture()
	u1, u2, outsider := f.addUser(t, "A"), f.addUser(t, "B"), f.addUser(t, "E")
	chat := f.addChat(t, false, u1, u2)
	other := f.addChat(t, false, u1, outsider)
	svc := f.messageService()
	ctx := context.Background()

	otherMsg, err := svc.Send(ctx, SendMessageInput{ChatID: other.ID.Hex(), SenderID: u1, Content: "x"})
	require.NoError(t, err)

	tests := []struct {
		name string
		in   SendMessageInput
		want error
	}{
		{"empty text", SendMessageInput{ChatID: chat.ID.Hex(), SenderID: u1, Content: "  "}, ErrInvalidRequest},
		{"image without file", SendMessageInput{ChatID: chat.ID.Hex(), SenderID: u1, MessageType: models.MessageTypeImage}, ErrInvalidRequest},
		{"poll through send", SendMessageInput{ChatID: chat.ID.Hex(), SenderID: u1, MessageType: models.MessageTypePoll}, ErrInvalidRequest},
		{"bad chat id", SendMessageInput{ChatID: "x", SenderID: u1, Content: "hi"}, ErrInvalidRequest},
		{"unknown chat", SendMessageInput{ChatID: "64b7f0c2a1b2c3d4e5f60718", SenderID: u1, Content: "hi"}, ErrNotFound},
		{"not a member", SendMessageInput{ChatID: chat.ID.Hex(), SenderID: outsider, Content: "hi"}, ErrForbidden},
		{"reply from other chat", SendMessageInput{ChatID: chat.ID.Hex(), SenderID: u1, Content: "hi", ReplyTo: otherMsg.ID.Hex()}, ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Send(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSendMessageUploadFailure(t *testing.T) {
	f := newFixture()
	u1, u2 := f.addUser(t, "A"), f.addUser(t, "B")
	chat := f.addChat(t, false, u1, u2)
	f.media.err = errors.New("bucket unavailable")

	_, err := f.messageService().Send(context.Background(), SendMessageInput{
		ChatID: chat.ID.Hex(), SenderID: u1, File: fileHeader("a.png", "image/png"),
	})
	require.Error(t, err)
	assert.Empty(t, f.messages.order)
}

func TestSendPoll(t *testing.T) {
	f := newFixture()
	u1, u2, u3 := f.addUser(t, "A"), f.addUser(t, "B"), f.addUser(t, "C")
	chat := f.addChat(t, true, u1, u2, u3)
	f.online(u2)
	svc := f.messageService()

	msg, err := svc.SendPoll(context.Background(), chat.ID.Hex(), u1, models.CreatePollRequest{
		Question: "Lunch?", Options: []string{"Pizza", "Sushi"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.MessageTypePoll, msg.MessageType)
	require.NotNil(t, msg.Poll)
	assert.Zero(t, msg.Poll.TotalVotes())
	assert.Equal(t, []string{u2}, f.pusher.recipients(models.EventNewGroupMessage))

	stored, _ := f.chats.FindByID(context.Background(), chat.ID)
	assert.Equal(t, "Lunch?", stored.LatestMessage)

	_, err = svc.SendPoll(context.Background(), chat.ID.Hex(), u1, models.CreatePollRequest{
		Question: "Lunch?", Options: []string{"Pizza"},
	})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestListMessagesResetsUnread(t *testing.T) {
	f := newFixture()
	u1, u2 := f.addUser(t, "A"), f.addUser(t, "B")
	chat := f.addChat(t, false, u1, u2)
	svc := f.messageService()
	ctx := context.Background()

	for _, text := range []string{"one", "two", "three"} {
		_, err := svc.Send(ctx, SendMessageInput{ChatID: chat.ID.Hex(), SenderID: u1, Content: text})
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, chat.ID.Hex(), u2, models.ListMessagesQuery{Page: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Messages, 2)
	assert.Equal(t, "three", page.Messages[0].Content)
	assert.Equal(t, int64(3), page.TotalMessages)
	assert.Equal(t, int64(2), page.TotalPages)

	stored, _ := f.chats.FindByID(ctx, chat.ID)
	assert.Zero(t, stored.UnreadMessages[u2])

	page, err = svc.List(ctx, chat.ID.Hex(), u2, models.ListMessagesQuery{Page: 1, Limit: 20, Search: "TW"})
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	assert.Equal(t, "two", page.Messages[0].Content)
}

func TestListMessagesRejectsOverflowingPage(t *testing.T) {
	f := newFixture()
	u1, u2 := f.addUser(t, "A"), f.addUser(t, "B")
	chat := f.addChat(t, false, u1, u2)
	svc := f.messageService()
	ctx := context.Background()

	_, err := svc.List(ctx, chat.ID.Hex(), u1, models.ListMessagesQuery{Page: math.MaxInt64 / 2, Limit: 100})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	page, err := svc.List(ctx, chat.ID.Hex(), u1, models.ListMessagesQuery{Page: models.MaxPage, Limit: 1000})
	require.NoError(t, err)
	assert.Empty(t, page.Messages)
	assert.Equal(t, int64(models.MaxPage), page.CurrentPage)
}

func TestDeleteMessage(t *testing.T) {
	f := newFixture()
	u1, u2, u3 := f.addUser(t, "A"), f.addUser(t, "B"), f.addUser(t, "C")
	chat := f.addChat(t, true, u1, u2, u3)
	f.online(u1, u2, u3)
	svc := f.messageService()
	ctx := context.Background()

	msg, err := svc.Send(ctx, SendMessageInput{ChatID: chat.ID.Hex(), SenderID: u1, Content: "oops"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, msg.ID.Hex(), u2), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, msg.ID.Hex(), u1))
	assert.ErrorIs(t, svc.Delete(ctx, msg.ID.Hex(), u1), ErrNotFound)

	assert.Equal(t, []string{u2, u3}, f.pusher.recipients(models.EventMessageDeleted))
	assert.Contains(t, f.publisher.types(), events.MessageDeleted)
}

func TestMarkRead(t *testing.T) {
	f := newFixture()
	u1, u2, outsider := f.addUser(t, "A"), f.addUser(t, "B"), f.addUser(t, "E")
	chat := f.addChat(t, false, u1, u2)
	svc := f.messageService()
	ctx := context.Background()

	_, err := svc.Send(ctx, SendMessageInput{ChatID: chat.ID.Hex(), SenderID: u1, Content: "ping"})
	require.NoError(t, err)

	require.NoError(t, svc.MarkRead(ctx, chat.ID.Hex(), u2))
	stored, _ := f.chats.FindByID(ctx, chat.ID)
	assert.Zero(t, stored.UnreadMessages[u2])

	assert.ErrorIs(t, svc.MarkRead(ctx, chat.ID.Hex(), outsider), ErrForbidden)
}
