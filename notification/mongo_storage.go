package notification

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// CollectionName is the document collection holding notifications.
const CollectionName = "notifications"

// MongoStorage is the document-store implementation of Storage.
type MongoStorage struct {
	coll *mongo.Collection
}

// NewMongoStorage creates a Storage backed by the notifications collection of
// the given database.
func NewMongoStorage(db *mongo.Database) *MongoStorage {
	return &MongoStorage{coll: db.Collection(CollectionName)}
}

// EnsureIndexes creates the secondary indexes backing recipient, emitter,
// kind and read-state lookups, plus the compound recipient+timestamp index
// that serves feed ordering.
func (s *MongoStorage) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "recipient", Value: 1}}},
		{Keys: bson.D{{Key: "emitter", Value: 1}}},
		{Keys: bson.D{{Key: "kind", Value: 1}}},
		{Keys: bson.D{{Key: "read", Value: 1}}},
		{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "timestamp", Value: -1}}},
	})
	if err != nil {
		return errors.Join(ErrStorageFailure, err)
	}
	return nil
}

func (s *MongoStorage) Create(ctx context.Context, n Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = n.CreatedAt
	}

	if _, err := s.coll.InsertOne(ctx, n); err != nil {
		return errors.Join(ErrStorageFailure, err)
	}
	return nil
}

func (s *MongoStorage) Get(ctx context.Context, id string) (*Notification, error) {
	var n Notification
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&n)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotificationNotFound
		}
		return nil, errors.Join(ErrStorageFailure, err)
	}
	return &n, nil
}

func (s *MongoStorage) List(ctx context.Context, f ListFilter) ([]Notification, error) {
	f = f.normalize()

	cursor, err := s.coll.Find(ctx, filterQuery(f), options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(f.Limit)))
	if err != nil {
		return nil, errors.Join(ErrStorageFailure, err)
	}

	items := make([]Notification, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, errors.Join(ErrStorageFailure, err)
	}
	return items, nil
}

func (s *MongoStorage) Search(ctx context.Context, f ListFilter) (*Page, error) {
	f = f.normalize()
	query := filterQuery(f)

	total, err := s.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, errors.Join(ErrStorageFailure, err)
	}

	cursor, err := s.coll.Find(ctx, query, options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetSkip(int64((f.Page-1)*f.Limit)).
		SetLimit(int64(f.Limit)))
	if err != nil {
		return nil, errors.Join(ErrStorageFailure, err)
	}

	items := make([]Notification, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, errors.Join(ErrStorageFailure, err)
	}

	return &Page{
		Items:      items,
		Total:      total,
		Page:       f.Page,
		TotalPages: int((total + int64(f.Limit) - 1) / int64(f.Limit)),
	}, nil
}

func (s *MongoStorage) Update(ctx context.Context, id string, fields UpdateFields) (*Notification, error) {
	set := bson.M{"updated_at": time.Now()}
	if fields.Subject != nil {
		set["subject"] = *fields.Subject
	}
	if fields.Body != nil {
		set["body"] = *fields.Body
	}
	if fields.Read != nil {
		set["read"] = *fields.Read
	}

	var n Notification
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&n)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotificationNotFound
		}
		return nil, errors.Join(ErrStorageFailure, err)
	}
	return &n, nil
}

func (s *MongoStorage) MarkRead(ctx context.Context, id string) (*Notification, error) {
	read := true
	return s.Update(ctx, id, UpdateFields{Read: &read})
}

func (s *MongoStorage) MarkManyRead(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	// Only unread records match, so ModifiedCount is exactly the number of
	// read-state flips; unknown and already-read ids are ignored.
	res, err := s.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}, "read": false},
		bson.M{"$set": bson.M{"read": true, "updated_at": time.Now()}},
	)
	if err != nil {
		return 0, errors.Join(ErrStorageFailure, err)
	}
	return res.ModifiedCount, nil
}

func (s *MongoStorage) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Join(ErrStorageFailure, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *MongoStorage) DeleteAllForRecipient(ctx context.Context, recipient string) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"recipient": recipient})
	if err != nil {
		return 0, errors.Join(ErrStorageFailure, err)
	}
	return res.DeletedCount, nil
}

func (s *MongoStorage) CountUnread(ctx context.Context, recipient string) (int64, error) {
	count, err := s.coll.CountDocuments(ctx, bson.M{"recipient": recipient, "read": false})
	if err != nil {
		return 0, errors.Join(ErrStorageFailure, err)
	}
	return count, nil
}

// filterQuery composes the conjunctive document-store query for a filter.
func filterQuery(f ListFilter) bson.M {
	query := bson.M{}
	if f.Recipient != "" {
		query["recipient"] = f.Recipient
	}
	if f.Emitter != "" {
		query["emitter"] = f.Emitter
	}
	if f.Kind != "" {
		query["kind"] = f.Kind
	}
	if f.Read != nil {
		query["read"] = *f.Read
	}

	ts := bson.M{}
	if !f.From.IsZero() {
		ts["$gte"] = f.From
	}
	if !f.To.IsZero() {
		ts["$lte"] = f.To
	}
	if len(ts) > 0 {
		query["timestamp"] = ts
	}

	return query
}
