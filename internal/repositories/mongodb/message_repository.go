package mongodb

import (
	"context"
	"regexp"
	"time"

	"chat-backend/internal/database"
	"chat-backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MessageRepository struct {
	coll *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) *MessageRepository {
	return &MessageRepository{coll: db.Collection(database.MessagesCollection)}
}

func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) error {
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, msg)
	return err
}

func (r *MessageRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error) {
	var msg models.Message
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *MessageRepository) List(ctx context.Context, chatID primitive.ObjectID, search string, page, limit int64) ([]models.Message, int64, error) {
	filter := messageSearchFilter(chatID, search)

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	messages := []models.Message{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

func (r *MessageRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *MessageRepository) DeleteByChat(ctx context.Context, chatID primitive.ObjectID) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{"chat": chatID})
	return err
}

// SavePoll is a compare-and-swap on poll.version
func (r *MessageRepository) SavePoll(ctx context.Context, id primitive.ObjectID, poll *models.Poll, expectedVersion int64) error {
	res, err := r.coll.UpdateOne(ctx, pollVersionFilter(id, expectedVersion), bson.M{
		"$set": bson.M{"poll": poll, "updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func messageSearchFilter(chatID primitive.ObjectID, search string) bson.M {
	filter := bson.M{"chat": chatID}
	if search != "" {
		filter["content"] = primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
	}
	return filter
}

// pollVersionFilter matches polls created before versioning too, which have no version field
func pollVersionFilter(id primitive.ObjectID, expectedVersion int64) bson.M {
	if expectedVersion == 0 {
		return bson.M{
			"_id":         id,
			"messageType": models.MessageTypePoll,
			"$or": bson.A{
				bson.M{"poll.version": 0},
				bson.M{"poll.version": bson.M{"$exists": false}},
			},
		}
	}
	return bson.M{"_id": id, "messageType": models.MessageTypePoll, "poll.version": expectedVersion}
}
