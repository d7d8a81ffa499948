package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/yourname/snusquit/internal"
)

type userDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Email     *string            `bson:"email"`
	Country   *string            `bson:"country"`
	CreatedAt time.Time          `bson:"created_at"`
}

type planDoc struct {
	ID                     primitive.ObjectID `bson:"_id,omitempty"`
	UserID                 string             `bson:"user_id"`
	GoalType               string             `bson:"goal_type"`
	StartDate              string             `bson:"start_date"`
	TargetDate             *string            `bson:"target_date"`
	BaselinePortionsPerDay *float64           `bson:"baseline_portions_per_day"`
	TargetPortionsPerDay   *float64           `bson:"target_portions_per_day"`
	CreatedAt              time.Time          `bson:"created_at"`
}

type checkinDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	UserID       string             `bson:"user_id"`
	Date         string             `bson:"date,omitempty"`
	NicotineFree bool               `bson:"nicotine_free"`
	PortionsUsed *float64           `bson:"portions_used"`
	CravingLevel *int               `bson:"craving_level"`
	Note         *string            `bson:"note"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

type tipDoc struct {
	ID    primitive.ObjectID `bson:"_id,omitempty"`
	Title string             `bson:"title"`
	Body  string             `bson:"body"`
}

// MongoStorage maps each entity kind onto the collection of the same name.
type MongoStorage struct {
	client *mongo.Client
	db     *mongo.Database
	logger internal.Logger
}

func NewMongoStorage(ctx context.Context, uri, dbName string, logger internal.Logger) (*MongoStorage, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(5 * time.Second).
		SetServerSelectionTimeout(5 * time.Second)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		logger.Errorf("failed to connect to mongo: %v", err)
		return nil, fmt.Errorf("storage: connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		logger.Errorf("failed to ping mongo: %v", err)
		return nil, mwrap("storage: ping mongo", err)
	}
	return &MongoStorage{client: client, db: client.Database(dbName), logger: logger}, nil
}

// mwrap is wrap with the driver's own notion of network and timeout failures.
func mwrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return fmt.Errorf("%s: %w: %w", op, internal.ErrStoreUnavailable, err)
	}
	return wrap(op, err)
}

func createDocument(ctx context.Context, coll *mongo.Collection, doc interface{}) (string, error) {
	res, err := coll.InsertOne(ctx, doc)
	if err != nil {
		return "", mwrap("storage: insert into "+coll.Name(), err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("storage: unexpected %T id from %s", res.InsertedID, coll.Name())
	}
	return oid.Hex(), nil
}

func getDocuments[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	cur, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, mwrap("storage: find in "+coll.Name(), err)
	}
	out := make([]T, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, mwrap("storage: decode "+coll.Name(), err)
	}
	return out, nil
}

func (m *MongoStorage) Name() string { return "mongo" }

func (m *MongoStorage) Database() string { return m.db.Name() }

func (m *MongoStorage) Ping(ctx context.Context) error {
	return mwrap("storage: ping mongo", m.client.Ping(ctx, readpref.Primary()))
}

func (m *MongoStorage) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func (m *MongoStorage) Collections(ctx context.Context) ([]string, error) {
	names, err := m.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, mwrap("storage: list collections", err)
	}
	if len(names) > 10 {
		names = names[:10]
	}
	return names, nil
}

func (m *MongoStorage) Migrate(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		CollCheckin: {{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_user_date"),
		}},
		CollPlan: {{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("user_created"),
		}},
		CollTip: {{
			Keys:    bson.D{{Key: "title", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_title"),
		}},
	}
	for coll, models := range indexes {
		if _, err := m.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			m.logger.Errorf("failed to create indexes on %s: %v", coll, err)
			return mwrap("storage: create indexes on "+coll, err)
		}
	}
	return nil
}

// --- UserRepository ---
func (m *MongoStorage) CreateUser(ctx context.Context, user *internal.User) (string, error) {
	return createDocument(ctx, m.db.Collection(CollUser), userDoc{
		Name:      user.Name,
		Email:     user.Email,
		Country:   user.Country,
		CreatedAt: time.Now().UTC(),
	})
}

func (m *MongoStorage) UserExists(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("storage: user id %q: %w", id, internal.ErrValidation)
	}
	n, err := m.db.Collection(CollUser).CountDocuments(ctx, bson.M{"_id": oid}, options.Count().SetLimit(1))
	if err != nil {
		return false, mwrap("storage: count users", err)
	}
	return n > 0, nil
}

// --- PlanRepository ---
func (m *MongoStorage) CreatePlan(ctx context.Context, plan *internal.Plan) (string, error) {
	return createDocument(ctx, m.db.Collection(CollPlan), planDoc{
		UserID:                 plan.UserID,
		GoalType:               plan.GoalType,
		StartDate:              plan.StartDate,
		TargetDate:             plan.TargetDate,
		BaselinePortionsPerDay: plan.BaselinePortionsPerDay,
		TargetPortionsPerDay:   plan.TargetPortionsPerDay,
		CreatedAt:              time.Now().UTC(),
	})
}

func (m *MongoStorage) LatestPlan(ctx context.Context, userID string) (*internal.Plan, error) {
	var doc planDoc
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	err := m.db.Collection(CollPlan).FindOne(ctx, bson.M{"user_id": userID}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, mwrap("storage: latest plan", err)
	}
	return &internal.Plan{
		ID:                     doc.ID.Hex(),
		UserID:                 doc.UserID,
		GoalType:               doc.GoalType,
		StartDate:              doc.StartDate,
		TargetDate:             doc.TargetDate,
		BaselinePortionsPerDay: doc.BaselinePortionsPerDay,
		TargetPortionsPerDay:   doc.TargetPortionsPerDay,
		CreatedAt:              doc.CreatedAt,
	}, nil
}

// --- CheckinRepository ---

// UpsertCheckin relies on the unique (user_id, date) index: the server turns
// concurrent upserts for one natural key into a single document.
func (m *MongoStorage) UpsertCheckin(ctx context.Context, checkin *internal.Checkin) (string, error) {
	now := time.Now().UTC()
	filter := bson.M{"user_id": checkin.UserID, "date": checkin.Date}
	update := bson.M{
		"$set": bson.M{
			"nicotine_free": checkin.NicotineFree,
			"portions_used": checkin.PortionsUsed,
			"craving_level": checkin.CravingLevel,
			"note":          checkin.Note,
			"updated_at":    now,
		},
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID(),
			"created_at": now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After).
		SetProjection(bson.M{"_id": 1})

	var out struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := m.db.Collection(CollCheckin).FindOneAndUpdate(ctx, filter, update, opts).Decode(&out); err != nil {
		m.logger.Errorf("failed to upsert checkin: %v", err)
		return "", mwrap("storage: upsert checkin", err)
	}
	return out.ID.Hex(), nil
}

func (m *MongoStorage) ListCheckins(ctx context.Context, userID string, limit int) ([]internal.Checkin, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	docs, err := getDocuments[checkinDoc](ctx, m.db.Collection(CollCheckin), bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	return checkinsFromDocs(docs), nil
}

func (m *MongoStorage) CheckinHistory(ctx context.Context, userID string) ([]internal.Checkin, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}})
	docs, err := getDocuments[checkinDoc](ctx, m.db.Collection(CollCheckin), bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	return checkinsFromDocs(docs), nil
}

func checkinsFromDocs(docs []checkinDoc) []internal.Checkin {
	out := make([]internal.Checkin, len(docs))
	for i, d := range docs {
		out[i] = internal.Checkin{
			ID:           d.ID.Hex(),
			UserID:       d.UserID,
			Date:         d.Date,
			NicotineFree: d.NicotineFree,
			PortionsUsed: d.PortionsUsed,
			CravingLevel: d.CravingLevel,
			Note:         d.Note,
			CreatedAt:    d.CreatedAt,
			UpdatedAt:    d.UpdatedAt,
		}
	}
	return out
}

// --- TipRepository ---
func (m *MongoStorage) CountTips(ctx context.Context) (int64, error) {
	n, err := m.db.Collection(CollTip).CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, mwrap("storage: count tips", err)
	}
	return n, nil
}

func (m *MongoStorage) SeedTips(ctx context.Context, tips []internal.Tip) error {
	docs := make([]interface{}, len(tips))
	for i, t := range tips {
		docs[i] = tipDoc{ID: primitive.NewObjectID(), Title: t.Title, Body: t.Body}
	}
	_, err := m.db.Collection(CollTip).InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		m.logger.Errorf("failed to seed tips: %v", err)
		return mwrap("storage: seed tips", err)
	}
	return nil
}

func (m *MongoStorage) ListTips(ctx context.Context, limit int) ([]internal.Tip, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	docs, err := getDocuments[tipDoc](ctx, m.db.Collection(CollTip), bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	tips := make([]internal.Tip, len(docs))
	for i, d := range docs {
		tips[i] = internal.Tip{ID: d.ID.Hex(), Title: d.Title, Body: d.Body}
	}
	return tips, nil
}

// --- Compile-time assertions ---
var _ Store = (*MongoStorage)(nil)
