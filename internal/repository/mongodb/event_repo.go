package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"campusevents/internal/domain"
)

type commentDoc struct {
	AuthorID  string    `bson:"author_id"`
	Text      string    `bson:"text"`
	Timestamp time.Time `bson:"timestamp"`
}

type eventDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Thumbnail   string             `bson:"thumbnail"`
	CreatedBy   string             `bson:"created_by"`
	Date        *time.Time         `bson:"date,omitempty"`
	Likes       []string           `bson:"likes"`
	Comments    []commentDoc       `bson:"comments"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func (d *eventDoc) toDomain() *domain.Event {
	e := &domain.Event{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Thumbnail:   d.Thumbnail,
		CreatedBy:   d.CreatedBy,
		Date:        d.Date,
		Likes:       d.Likes,
		Comments:    make([]domain.Comment, 0, len(d.Comments)),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if e.Likes == nil {
		e.Likes = []string{}
	}
	for _, c := range d.Comments {
		e.Comments = append(e.Comments, domain.Comment{AuthorID: c.AuthorID, Text: c.Text, Timestamp: c.Timestamp})
	}
	return e
}

var feedSort = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

type eventRepository struct {
	coll *mongo.Collection
}

func NewEventRepository(db *mongo.Database) domain.EventRepository {
	return &eventRepository{coll: db.Collection(eventsCollection)}
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	doc := eventDoc{
		ID:          primitive.NewObjectID(),
		Title:       e.Title,
		Description: e.Description,
		Thumbnail:   e.Thumbnail,
		CreatedBy:   e.CreatedBy,
		Date:        e.Date,
		Likes:       []string{},
		Comments:    []commentDoc{},
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return err
	}
	e.ID = doc.ID.Hex()
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc eventDoc
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	return doc.toDomain(), nil
}

func (r *eventRepository) List(ctx context.Context, p domain.PaginationParams) ([]*domain.Event, error) {
	opts := options.Find().SetSort(feedSort).SetSkip(int64(p.Offset())).SetLimit(int64(p.PageSize))
	return r.find(ctx, bson.D{}, opts)
}

func (r *eventRepository) ListByCreator(ctx context.Context, creatorID string) ([]*domain.Event, error) {
	return r.find(ctx, bson.D{{Key: "created_by", Value: creatorID}}, options.Find().SetSort(feedSort))
}

func (r *eventRepository) find(ctx context.Context, filter bson.D, opts *options.FindOptions) ([]*domain.Event, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	events := make([]*domain.Event, 0)
	for cur.Next(ctx) {
		var doc eventDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		events = append(events, doc.toDomain())
	}
	return events, cur.Err()
}

func (r *eventRepository) Update(ctx context.Context, id string, patch domain.EventPatch, updatedAt time.Time) (*domain.Event, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	set := bson.D{{Key: "updated_at", Value: updatedAt}}
	if patch.Title != nil {
		set = append(set, bson.E{Key: "title", Value: *patch.Title})
	}
	if patch.Description != nil {
		set = append(set, bson.E{Key: "description", Value: *patch.Description})
	}
	if patch.Thumbnail != nil {
		set = append(set, bson.E{Key: "thumbnail", Value: *patch.Thumbnail})
	}
	if patch.Date != nil {
		set = append(set, bson.E{Key: "date", Value: *patch.Date})
	}

	var doc eventDoc
	err = r.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, notFound(err)
	}
	return doc.toDomain(), nil
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// toggleLikePipeline removes userID from likes when present and appends it otherwise,
// evaluated server-side so concurrent toggles never lose an update.
func toggleLikePipeline(userID string) mongo.Pipeline {
	likes := bson.D{{Key: "$ifNull", Value: bson.A{"$likes", bson.A{}}}}
	user := bson.D{{Key: "$literal", Value: userID}}
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{{Key: "likes", Value: bson.D{{Key: "$cond", Value: bson.D{
			{Key: "if", Value: bson.D{{Key: "$in", Value: bson.A{user, likes}}}},
			{Key: "then", Value: bson.D{{Key: "$filter", Value: bson.D{
				{Key: "input", Value: likes},
				{Key: "cond", Value: bson.D{{Key: "$ne", Value: bson.A{"$$this", user}}}},
			}}}},
			{Key: "else", Value: bson.D{{Key: "$concatArrays", Value: bson.A{likes, bson.A{user}}}}},
		}}}}}}},
	}
}

func (r *eventRepository) ToggleLike(ctx context.Context, eventID, userID string) (*domain.LikeResult, error) {
	oid, err := objectID(eventID)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Likes []string `bson:"likes"`
	}
	err = r.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: oid}},
		toggleLikePipeline(userID),
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(bson.D{{Key: "likes", Value: 1}}),
	).Decode(&doc)
	if err != nil {
		return nil, notFound(err)
	}
	liked := false
	for _, id := range doc.Likes {
		if id == userID {
			liked = true
			break
		}
	}
	return &domain.LikeResult{Likes: len(doc.Likes), Liked: liked}, nil
}

func (r *eventRepository) AppendComment(ctx context.Context, eventID string, c domain.Comment) error {
	oid, err := objectID(eventID)
	if err != nil {
		return err
	}
	push := commentDoc{AuthorID: c.AuthorID, Text: c.Text, Timestamp: c.Timestamp}
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$push", Value: bson.D{{Key: "comments", Value: push}}}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ErrNotFound
	}
	return err
}
