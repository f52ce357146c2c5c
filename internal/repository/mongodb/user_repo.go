package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"campusevents/internal/domain"
)

type userDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	FirstName   string             `bson:"first_name"`
	LastName    string             `bson:"last_name"`
	Email       string             `bson:"email"`
	Photo       string             `bson:"photo"`
	Type        string             `bson:"type"`
	Connections []string           `bson:"connections"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func (d *userDoc) toDomain() *domain.User {
	u := &domain.User{
		ID:          d.ID.Hex(),
		FirstName:   d.FirstName,
		LastName:    d.LastName,
		Email:       d.Email,
		Photo:       d.Photo,
		Type:        domain.UserType(d.Type),
		Connections: d.Connections,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if u.Connections == nil {
		u.Connections = []string{}
	}
	return u
}

type userRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) domain.UserRepository {
	return &userRepository{coll: db.Collection(usersCollection)}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc userDoc
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	return doc.toDomain(), nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate, updatedAt time.Time) (*domain.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc userDoc
	err = r.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "first_name", Value: update.FirstName},
			{Key: "last_name", Value: update.LastName},
			{Key: "email", Value: update.Email},
			{Key: "updated_at", Value: updatedAt},
		}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, notFound(err)
	}
	return doc.toDomain(), nil
}

// SwapPhoto reads the pre-image so the previous photo is exactly the one replaced.
func (r *userRepository) SwapPhoto(ctx context.Context, id, photo string, updatedAt time.Time) (*domain.User, string, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, "", err
	}
	var before userDoc
	err = r.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "photo", Value: photo},
			{Key: "updated_at", Value: updatedAt},
		}}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&before)
	if err != nil {
		return nil, "", notFound(err)
	}
	previous := before.Photo
	u := before.toDomain()
	u.Photo = photo
	u.UpdatedAt = updatedAt
	return u, previous, nil
}

func (r *userRepository) ListOthers(ctx context.Context, excludeID string, limit int) ([]*domain.User, error) {
	filter := bson.D{}
	if oid, err := primitive.ObjectIDFromHex(excludeID); err == nil {
		filter = bson.D{{Key: "_id", Value: bson.D{{Key: "$ne", Value: oid}}}}
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "first_name", Value: 1}, {Key: "last_name", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit))

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	users := make([]*domain.User, 0)
	for cur.Next(ctx) {
		var doc userDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		users = append(users, doc.toDomain())
	}
	return users, cur.Err()
}

func (r *userRepository) AddConnection(ctx context.Context, userID, targetID string) (bool, error) {
	oid, err := objectID(userID)
	if err != nil {
		return false, err
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$addToSet", Value: bson.D{{Key: "connections", Value: targetID}}}},
	)
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		return false, domain.ErrNotFound
	}
	return res.ModifiedCount > 0, nil
}
