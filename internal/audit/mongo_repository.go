package audit

import (
	"context"
	"time"

	"github.com/civicreg/citizen-admin/internal/apperr"
	"github.com/civicreg/citizen-admin/internal/models"
	"github.com/civicreg/citizen-admin/pkg/logger"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepository stores audit entries in a MongoDB collection.
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	if _, err := col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "timestamp", Value: -1}},
	}); err != nil {
		logger.Warnf("audit timestamp index not created: %v", err)
	}
	if _, err := col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "target_user_id", Value: 1}, {Key: "timestamp", Value: -1}},
	}); err != nil {
		logger.Warnf("audit target_user_id index not created: %v", err)
	}
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Insert(ctx context.Context, e *models.AuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if _, err := r.col.InsertOne(ctx, e); err != nil {
		return apperr.FromMongo("insert audit entry", err)
	}
	return nil
}

func (r *MongoRepository) Find(ctx context.Context, q Query) ([]*models.AuditEntry, error) {
	filter := bson.M{}
	if q.TargetUserID != "" {
		filter["target_user_id"] = q.TargetUserID
	}
	if q.AdminEmail != "" {
		filter["admin_email"] = q.AdminEmail
	}
	if q.ActionType != "" {
		filter["action_type"] = q.ActionType
	}
	ts := bson.M{}
	if q.From != nil {
		ts["$gte"] = *q.From
	}
	if q.To != nil {
		ts["$lte"] = *q.To
	}
	if len(ts) > 0 {
		filter["timestamp"] = ts
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperr.FromMongo("find audit entries", err)
	}
	defer cur.Close(ctx)
	out := []*models.AuditEntry{}
	for cur.Next(ctx) {
		var e models.AuditEntry
		if err := cur.Decode(&e); err != nil {
			return nil, apperr.FromMongo("decode audit entry", err)
		}
		out = append(out, &e)
	}
	return out, nil
}

func (r *MongoRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{"timestamp": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, apperr.FromMongo("cleanup audit entries", err)
	}
	return res.DeletedCount, nil
}
