package mongodb

import (
	"context"

	"chat-backend/internal/database"
	"chat-backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CommunityRepository struct {
	coll *mongo.Collection
}

func NewCommunityRepository(db *mongo.Database) *CommunityRepository {
	return &CommunityRepository{coll: db.Collection(database.CommunitiesCollection)}
}

func (r *CommunityRepository) Create(ctx context.Context, community *models.Community) error {
	if community.ID.IsZero() {
		community.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, community)
	return err
}

// CreateMany inserts the batch in order and assigns missing ids in place
func (r *CommunityRepository) CreateMany(ctx context.Context, communities []models.Community) error {
	if len(communities) == 0 {
		return nil
	}
	docs := make([]any, len(communities))
	for i := range communities {
		if communities[i].ID.IsZero() {
			communities[i].ID = primitive.NewObjectID()
		}
		docs[i] = communities[i]
	}
	_, err := r.coll.InsertMany(ctx, docs)
	return err
}

func (r *CommunityRepository) Existing(ctx context.Context, communityIDs []string) (map[string]bool, error) {
	found := make(map[string]bool)
	if len(communityIDs) == 0 {
		return found, nil
	}

	opts := options.Find().SetProjection(bson.M{"communityId": 1})
	cursor, err := r.coll.Find(ctx, bson.M{"communityId": bson.M{"$in": communityIDs}}, opts)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		CommunityID string `bson:"communityId"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	for _, row := range rows {
		found[row.CommunityID] = true
	}
	return found, nil
}

func (r *CommunityRepository) List(ctx context.Context) ([]models.Community, error) {
	cursor, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	communities := []models.Community{}
	if err := cursor.All(ctx, &communities); err != nil {
		return nil, err
	}
	return communities, nil
}
