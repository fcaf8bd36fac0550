package mongodb

import (
	"context"
	"time"

	"chat-backend/internal/database"
	"chat-backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ChatRepository struct {
	coll *mongo.Collection
}

func NewChatRepository(db *mongo.Database) *ChatRepository {
	return &ChatRepository{coll: db.Collection(database.ChatsCollection)}
}

func (r *ChatRepository) Create(ctx context.Context, chat *models.Chat) error {
	if chat.ID.IsZero() {
		chat.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, chat)
	return err
}

func (r *ChatRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Chat, error) {
	var chat models.Chat
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *ChatRepository) FindDirect(ctx context.Context, a, b primitive.ObjectID) (*models.Chat, error) {
	var chat models.Chat
	err := r.coll.FindOne(ctx, directChatFilter(a, b)).Decode(&chat)
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *ChatRepository) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Chat, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"participants": userID}, opts)
	if err != nil {
		return nil, err
	}
	chats := []models.Chat{}
	if err := cursor.All(ctx, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

func (r *ChatRepository) Rename(ctx context.Context, id primitive.ObjectID, name string) (*models.Chat, error) {
	return r.findAndUpdate(ctx, id, bson.M{"$set": bson.M{"groupName": name, "updatedAt": time.Now().UTC()}})
}

// AddParticipant appends with $addToSet so a repeated add keeps one entry
func (r *ChatRepository) AddParticipant(ctx context.Context, id, userID primitive.ObjectID) (*models.Chat, error) {
	return r.findAndUpdate(ctx, id, bson.M{
		"$addToSet": bson.M{"participants": userID},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	})
}

func (r *ChatRepository) RemoveParticipant(ctx context.Context, id, userID primitive.ObjectID) (*models.Chat, error) {
	return r.findAndUpdate(ctx, id, bson.M{
		"$pull":  bson.M{"participants": userID},
		"$unset": bson.M{"unreadMessages." + userID.Hex(): ""},
		"$set":   bson.M{"updatedAt": time.Now().UTC()},
	})
}

func (r *ChatRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *ChatRepository) RecordMessage(ctx context.Context, id primitive.ObjectID, preview string, recipients []string) error {
	_, err := r.coll.UpdateByID(ctx, id, recordMessageUpdate(preview, recipients, time.Now().UTC()))
	return err
}

func (r *ChatRepository) ResetUnread(ctx context.Context, id primitive.ObjectID, userID string) error {
	_, err := r.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{"unreadMessages." + userID: 0}})
	return err
}

func (r *ChatRepository) findAndUpdate(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.Chat, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var chat models.Chat
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

func directChatFilter(a, b primitive.ObjectID) bson.M {
	return bson.M{
		"isGroup":      false,
		"participants": bson.M{"$all": bson.A{a, b}, "$size": 2},
	}
}

// recordMessageUpdate bumps every recipient's unread counter in one write
func recordMessageUpdate(preview string, recipients []string, now time.Time) bson.M {
	inc := bson.M{}
	for _, id := range recipients {
		inc["unreadMessages."+id] = 1
	}
	update := bson.M{"$set": bson.M{"latestMessage": preview, "updatedAt": now}}
	if len(inc) > 0 {
		update["$inc"] = inc
	}
	return update
}
