package mongodb

import (
	"context"
	"regexp"

	"chat-backend/internal/database"
	"chat-backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(database.UsersCollection)}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, user)
	return err
}

func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Search(ctx context.Context, query, role string, exclude primitive.ObjectID, page, limit int64) ([]models.User, int64, error) {
	filter := userSearchFilter(query, role, exclude)

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "fullName", Value: 1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit).
		SetProjection(bson.M{"password": 0})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// ListVisibleTo returns the chat directory of caller, sorted by name
func (r *UserRepository) ListVisibleTo(ctx context.Context, caller *models.User) ([]models.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "fullName", Value: 1}}).
		SetProjection(bson.M{"password": 0})

	cursor, err := r.coll.Find(ctx, visibleUsersFilter(caller), opts)
	if err != nil {
		return nil, err
	}
	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	res, err := r.coll.UpdateByID(ctx, user.ID, bson.M{"$set": bson.M{
		"fullName":   user.FullName,
		"phone":      user.Phone,
		"profilePic": user.ProfilePic,
		"updatedAt":  user.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// userSearchFilter escapes the query so user input is matched literally
func userSearchFilter(query, role string, exclude primitive.ObjectID) bson.M {
	filter := bson.M{}
	if !exclude.IsZero() {
		filter["_id"] = bson.M{"$ne": exclude}
	}
	if role != "" {
		filter["role"] = role
	}
	if query != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"fullName": pattern},
			bson.M{"email": pattern},
		}
	}
	return filter
}

// visibleUsersFilter mirrors models.User.CanSee
func visibleUsersFilter(caller *models.User) bson.M {
	var or bson.A
	switch caller.Role {
	case models.RoleSuperAdmin:
		or = bson.A{
			bson.M{"role": bson.M{"$in": bson.A{models.RoleAdmin, models.RoleUser}}, "superAdmin": caller.ID},
		}
	case models.RoleAdmin:
		or = bson.A{
			bson.M{"role": models.RoleUser, "admin": caller.ID},
			bson.M{"role": models.RoleAdmin, "superAdmin": refOrMissing(caller.SuperAdmin)},
		}
		if caller.SuperAdmin != nil {
			or = append(or, bson.M{"role": models.RoleSuperAdmin, "_id": *caller.SuperAdmin})
		}
	default:
		or = bson.A{
			bson.M{"role": bson.M{"$in": bson.A{models.RoleUser, ""}}, "admin": refOrMissing(caller.Admin)},
		}
		if caller.Admin != nil {
			or = append(or, bson.M{"role": models.RoleAdmin, "_id": *caller.Admin})
		}
		if caller.SuperAdmin != nil {
			or = append(or, bson.M{"role": models.RoleSuperAdmin, "_id": *caller.SuperAdmin})
		}
	}
	return bson.M{"_id": bson.M{"$ne": caller.ID}, "$or": or}
}

func refOrMissing(id *primitive.ObjectID) any {
	if id == nil {
		return bson.M{"$exists": false}
	}
	return *id
}
