package repository

import (
	"context"
	"regexp"
	"time"

	"github.com/civicreg/citizen-admin/internal/apperr"
	"github.com/civicreg/citizen-admin/internal/models"
	"github.com/civicreg/citizen-admin/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo implements Repository over four collections: users,
// citizen_cards, residence and household_members. All top-level documents
// use the citizen UID as _id; household members are keyed by
// (uid, member_id).
type MongoRepo struct {
	users     *mongo.Collection
	cards     *mongo.Collection
	residence *mongo.Collection
	members   *mongo.Collection
}

func NewMongoRepo(users, cards, residence, members *mongo.Collection) *MongoRepo {
	// citizen_id mirrors _id for profiles but gets its own unique index so
	// uniqueness holds even if the two ever diverge. Without it the
	// duplicate guard degrades to the service-level existence check.
	if _, err := users.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "citizen_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		logger.Warnf("unique citizen_id index not created: %v", err)
	}
	if _, err := users.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	}); err != nil {
		logger.Warnf("created_at index not created: %v", err)
	}
	if _, err := members.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "uid", Value: 1}, {Key: "member_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		logger.Warnf("household member (uid, member_id) index not created: %v", err)
	}
	return &MongoRepo{users: users, cards: cards, residence: residence, members: members}
}

func (m *MongoRepo) CreateProfile(ctx context.Context, p *models.UserProfile) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := m.users.InsertOne(ctx, p); err != nil {
		return apperr.FromMongo("create profile", err)
	}
	return nil
}

func (m *MongoRepo) GetProfile(ctx context.Context, uid string) (*models.UserProfile, error) {
	var p models.UserProfile
	err := m.users.FindOne(ctx, bson.M{"_id": uid}).Decode(&p)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, apperr.FromMongo("get profile", err)
	}
	return &p, nil
}

func (m *MongoRepo) GetProfiles(ctx context.Context, uids []string) ([]*models.UserProfile, error) {
	if len(uids) == 0 {
		return []*models.UserProfile{}, nil
	}
	cur, err := m.users.Find(ctx, bson.M{"_id": bson.M{"$in": uids}})
	if err != nil {
		return nil, apperr.FromMongo("get profiles", err)
	}
	defer cur.Close(ctx)
	out := []*models.UserProfile{}
	for cur.Next(ctx) {
		var p models.UserProfile
		if err := cur.Decode(&p); err != nil {
			return nil, apperr.FromMongo("decode profile", err)
		}
		out = append(out, &p)
	}
	return out, nil
}

func (m *MongoRepo) UpdateProfile(ctx context.Context, uid string, set map[string]interface{}) error {
	set["updated_at"] = time.Now()
	res, err := m.users.UpdateOne(ctx, bson.M{"_id": uid}, bson.M{"$set": set})
	if err != nil {
		return apperr.FromMongo("update profile", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func listFilter(q ListQuery) bson.M {
	filter := bson.M{}
	if !q.IncludeDeleted {
		filter["deleted"] = bson.M{"$ne": true}
	}
	if q.SearchTerm != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(q.SearchTerm), Options: "i"}
		switch q.SearchField {
		case SearchFieldName:
			filter["full_name"] = re
		case SearchFieldEmail:
			filter["email"] = re
		case SearchFieldCitizenID:
			filter["citizen_id"] = re
		default:
			filter["$or"] = bson.A{
				bson.M{"full_name": re},
				bson.M{"email": re},
				bson.M{"citizen_id": re},
			}
		}
	}
	created := bson.M{}
	if q.CreatedFrom != nil {
		created["$gte"] = *q.CreatedFrom
	}
	if q.CreatedTo != nil {
		created["$lte"] = *q.CreatedTo
	}
	if len(created) > 0 {
		filter["created_at"] = created
	}
	return filter
}

func (m *MongoRepo) ListProfiles(ctx context.Context, q ListQuery) ([]*models.UserProfile, int64, error) {
	filter := listFilter(q)
	total, err := m.users.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, apperr.FromMongo("count profiles", err)
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if q.Offset > 0 {
		opts.SetSkip(int64(q.Offset))
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	cur, err := m.users.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, apperr.FromMongo("list profiles", err)
	}
	defer cur.Close(ctx)
	out := []*models.UserProfile{}
	for cur.Next(ctx) {
		var p models.UserProfile
		if err := cur.Decode(&p); err != nil {
			return nil, 0, apperr.FromMongo("decode profile", err)
		}
		out = append(out, &p)
	}
	return out, total, nil
}

func (m *MongoRepo) ListRecent(ctx context.Context, limit int, since *time.Time) ([]*models.UserProfile, error) {
	out, _, err := m.ListProfiles(ctx, ListQuery{Limit: limit, CreatedFrom: since})
	return out, err
}

// ListByEmailDomain returns non-deleted profiles whose email belongs to
// the given domain, matched case-insensitively, newest first.
func (m *MongoRepo) ListByEmailDomain(ctx context.Context, domain string, limit int) ([]*models.UserProfile, error) {
	filter := bson.M{
		"deleted": bson.M{"$ne": true},
		"email":   primitive.Regex{Pattern: "@" + regexp.QuoteMeta(domain) + "$", Options: "i"},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := m.users.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperr.FromMongo("list by email domain", err)
	}
	defer cur.Close(ctx)
	out := []*models.UserProfile{}
	for cur.Next(ctx) {
		var p models.UserProfile
		if err := cur.Decode(&p); err != nil {
			return nil, apperr.FromMongo("decode profile", err)
		}
		out = append(out, &p)
	}
	return out, nil
}

func (m *MongoRepo) ListSoftDeletedBefore(ctx context.Context, cutoff time.Time) ([]*models.UserProfile, error) {
	cur, err := m.users.Find(ctx, bson.M{"deleted": true, "deleted_at": bson.M{"$lte": cutoff}})
	if err != nil {
		return nil, apperr.FromMongo("list soft-deleted", err)
	}
	defer cur.Close(ctx)
	out := []*models.UserProfile{}
	for cur.Next(ctx) {
		var p models.UserProfile
		if err := cur.Decode(&p); err != nil {
			return nil, apperr.FromMongo("decode profile", err)
		}
		out = append(out, &p)
	}
	return out, nil
}

func (m *MongoRepo) CitizenIDExists(ctx context.Context, citizenID, excludeUID string) (bool, error) {
	filter := bson.M{"citizen_id": citizenID}
	if excludeUID != "" {
		filter["_id"] = bson.M{"$ne": excludeUID}
	}
	n, err := m.users.CountDocuments(ctx, filter)
	if err != nil {
		return false, apperr.FromMongo("check citizen_id", err)
	}
	return n > 0, nil
}

func (m *MongoRepo) GetCard(ctx context.Context, uid string) (*models.CitizenCard, error) {
	var c models.CitizenCard
	err := m.cards.FindOne(ctx, bson.M{"_id": uid}).Decode(&c)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, apperr.FromMongo("get card", err)
	}
	return &c, nil
}

func (m *MongoRepo) UpsertCard(ctx context.Context, c *models.CitizenCard) error {
	c.UpdatedAt = time.Now()
	_, err := m.cards.ReplaceOne(ctx, bson.M{"_id": c.UID}, c, options.Replace().SetUpsert(true))
	if err != nil {
		return apperr.FromMongo("upsert card", err)
	}
	return nil
}

func (m *MongoRepo) UpdateCard(ctx context.Context, uid string, set map[string]interface{}) error {
	set["updated_at"] = time.Now()
	res, err := m.cards.UpdateOne(ctx, bson.M{"_id": uid}, bson.M{"$set": set})
	if err != nil {
		return apperr.FromMongo("update card", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepo) GetResidence(ctx context.Context, uid string) (*models.Residence, error) {
	var r models.Residence
	err := m.residence.FindOne(ctx, bson.M{"_id": uid}).Decode(&r)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, apperr.FromMongo("get residence", err)
	}
	return &r, nil
}

func (m *MongoRepo) UpsertResidence(ctx context.Context, r *models.Residence) error {
	r.UpdatedAt = time.Now()
	_, err := m.residence.ReplaceOne(ctx, bson.M{"_id": r.UID}, r, options.Replace().SetUpsert(true))
	if err != nil {
		return apperr.FromMongo("upsert residence", err)
	}
	return nil
}

func (m *MongoRepo) UpdateResidence(ctx context.Context, uid string, set map[string]interface{}) error {
	set["updated_at"] = time.Now()
	res, err := m.residence.UpdateOne(ctx, bson.M{"_id": uid}, bson.M{"$set": set})
	if err != nil {
		return apperr.FromMongo("update residence", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepo) ListMembers(ctx context.Context, uid string) ([]models.HouseholdMember, error) {
	cur, err := m.members.Find(ctx, bson.M{"uid": uid}, options.Find().SetSort(bson.D{{Key: "member_id", Value: 1}}))
	if err != nil {
		return nil, apperr.FromMongo("list members", err)
	}
	defer cur.Close(ctx)
	out := []models.HouseholdMember{}
	for cur.Next(ctx) {
		var mm models.HouseholdMember
		if err := cur.Decode(&mm); err != nil {
			return nil, apperr.FromMongo("decode member", err)
		}
		out = append(out, mm)
	}
	return out, nil
}

func (m *MongoRepo) UpsertMember(ctx context.Context, member *models.HouseholdMember) error {
	member.EnsureMemberID()
	_, err := m.members.ReplaceOne(ctx,
		bson.M{"uid": member.UID, "member_id": member.MemberID},
		member, options.Replace().SetUpsert(true))
	if err != nil {
		return apperr.FromMongo("upsert member", err)
	}
	return nil
}

func (m *MongoRepo) DeleteMember(ctx context.Context, uid, memberID string) error {
	res, err := m.members.DeleteOne(ctx, bson.M{"uid": uid, "member_id": memberID})
	if err != nil {
		return apperr.FromMongo("delete member", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceMembers swaps the full member set of a residence in one bulk
// write: delete everything under the uid, then re-insert.
func (m *MongoRepo) ReplaceMembers(ctx context.Context, uid string, members []models.HouseholdMember) error {
	ops := []mongo.WriteModel{
		mongo.NewDeleteManyModel().SetFilter(bson.M{"uid": uid}),
	}
	for i := range members {
		members[i].UID = uid
		members[i].EnsureMemberID()
		ops = append(ops, mongo.NewInsertOneModel().SetDocument(members[i]))
	}
	_, err := m.members.BulkWrite(ctx, ops, options.BulkWrite().SetOrdered(true))
	if err != nil {
		return apperr.FromMongo("replace members", err)
	}
	return nil
}

func (m *MongoRepo) CountMembers(ctx context.Context, uid string) (int64, error) {
	n, err := m.members.CountDocuments(ctx, bson.M{"uid": uid})
	if err != nil {
		return 0, apperr.FromMongo("count members", err)
	}
	return n, nil
}

// CreateUserRecords writes the full record set for one citizen. The
// profile insert goes first so its unique citizen_id index rejects
// duplicates before any secondary document is written.
func (m *MongoRepo) CreateUserRecords(ctx context.Context, p *models.UserProfile, c *models.CitizenCard, r *models.Residence, members []models.HouseholdMember) error {
	if err := m.CreateProfile(ctx, p); err != nil {
		return err
	}
	if c != nil {
		c.UID = p.UID
		if err := m.UpsertCard(ctx, c); err != nil {
			return err
		}
	}
	if r != nil {
		r.UID = p.UID
		if err := m.UpsertResidence(ctx, r); err != nil {
			return err
		}
	}
	if len(members) > 0 {
		if err := m.ReplaceMembers(ctx, p.UID, members); err != nil {
			return err
		}
	}
	return nil
}

// DeleteUserRecords removes the profile, card, residence and all household
// members for a uid and reports what was deleted.
func (m *MongoRepo) DeleteUserRecords(ctx context.Context, uid string) (DeletedCounts, error) {
	var counts DeletedCounts

	res, err := m.users.DeleteOne(ctx, bson.M{"_id": uid})
	if err != nil {
		return counts, apperr.FromMongo("delete profile", err)
	}
	counts.Profile = res.DeletedCount

	res, err = m.cards.DeleteOne(ctx, bson.M{"_id": uid})
	if err != nil {
		return counts, apperr.FromMongo("delete card", err)
	}
	counts.Card = res.DeletedCount

	res, err = m.residence.DeleteOne(ctx, bson.M{"_id": uid})
	if err != nil {
		return counts, apperr.FromMongo("delete residence", err)
	}
	counts.Residence = res.DeletedCount

	mres, err := m.members.DeleteMany(ctx, bson.M{"uid": uid})
	if err != nil {
		return counts, apperr.FromMongo("delete members", err)
	}
	counts.Members = mres.DeletedCount

	if counts.Profile == 0 {
		return counts, ErrNotFound
	}
	return counts, nil
}
