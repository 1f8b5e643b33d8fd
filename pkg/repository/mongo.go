package repository

import (
	"context"
	"errors"
	"time"

	"github.com/example/qrdine/pkg/config"
	"github.com/example/qrdine/pkg/live"
	"github.com/example/qrdine/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoStore keeps the four collections in MongoDB. Document ids are strings:
// generated ids are ObjectID hex, seeded ids are slugs.
type MongoStore struct {
	client   *mongo.Client
	database *mongo.Database
	config   *config.MongoDBConfig
	logger   *zap.Logger
}

func NewMongoStore(cfg *config.MongoDBConfig, logger *zap.Logger) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}

	s := &MongoStore{
		client:   client,
		database: client.Database(cfg.Database),
		config:   cfg,
		logger:   logger,
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (m *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := m.collection(OrdersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "tableNumber", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return err
	}
	_, err = m.collection(WaiterCallsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	return err
}

func (m *MongoStore) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *MongoStore) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *MongoStore) collection(name string) *mongo.Collection {
	return m.database.Collection(name)
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, opts *options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make([]T, 0)
	if err = cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, id string) (*T, error) {
	var doc T
	err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (m *MongoStore) insert(ctx context.Context, name, id string, doc interface{}) (string, error) {
	if _, err := m.collection(name).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", ErrConflict
		}
		return "", err
	}
	return id, nil
}

func (m *MongoStore) set(ctx context.Context, name, id string, fields map[string]interface{}) error {
	res, err := m.collection(name).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoStore) remove(ctx context.Context, name, id string) error {
	res, err := m.collection(name).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// compareAndSet applies update when filter matches. A miss is reported as
// ErrNotFound when the document is gone and ErrConflict otherwise.
func (m *MongoStore) compareAndSet(ctx context.Context, name, id string, filter bson.M, update bson.M) error {
	coll := m.collection(name)
	filter["_id"] = id
	res, err := coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 1 {
		return nil
	}
	n, err := coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrConflict
}

func (m *MongoStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "name", Value: 1}})
	return findAll[models.Category](ctx, m.collection(CategoriesCollection), bson.M{}, opts)
}

func (m *MongoStore) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	return findOne[models.Category](ctx, m.collection(CategoriesCollection), id)
}

func (m *MongoStore) CreateCategory(ctx context.Context, c models.Category) (string, error) {
	if c.ID == "" {
		c.ID = primitive.NewObjectID().Hex()
	}
	return m.insert(ctx, CategoriesCollection, c.ID, c)
}

func (m *MongoStore) UpdateCategory(ctx context.Context, id string, fields map[string]interface{}) error {
	return m.set(ctx, CategoriesCollection, id, fields)
}

func (m *MongoStore) DeleteCategory(ctx context.Context, id string) error {
	return m.remove(ctx, CategoriesCollection, id)
}

func (m *MongoStore) WatchCategories(ctx context.Context) (*live.Subscription[models.Category], error) {
	return watch(ctx, m, CategoriesCollection, bson.D{}, m.ListCategories)
}

func (m *MongoStore) ListMenuItems(ctx context.Context) ([]models.MenuItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	return findAll[models.MenuItem](ctx, m.collection(MenusCollection), bson.M{}, opts)
}

func (m *MongoStore) GetMenuItem(ctx context.Context, id string) (*models.MenuItem, error) {
	return findOne[models.MenuItem](ctx, m.collection(MenusCollection), id)
}

func (m *MongoStore) CreateMenuItem(ctx context.Context, item models.MenuItem) (string, error) {
	if item.ID == "" {
		item.ID = primitive.NewObjectID().Hex()
	}
	return m.insert(ctx, MenusCollection, item.ID, item)
}

func (m *MongoStore) UpdateMenuItem(ctx context.Context, id string, fields map[string]interface{}) error {
	return m.set(ctx, MenusCollection, id, fields)
}

func (m *MongoStore) DeleteMenuItem(ctx context.Context, id string) error {
	return m.remove(ctx, MenusCollection, id)
}

func (m *MongoStore) WatchMenu(ctx context.Context) (*live.Subscription[models.MenuItem], error) {
	return watch(ctx, m, MenusCollection, bson.D{}, m.ListMenuItems)
}

func (m *MongoStore) CreateOrder(ctx context.Context, o models.Order) (models.Order, error) {
	ts := now()
	o.ID = primitive.NewObjectID().Hex()
	o.Status = models.StatusPending
	o.CreatedAt = ts
	o.UpdatedAt = ts
	if _, err := m.collection(OrdersCollection).InsertOne(ctx, o); err != nil {
		return models.Order{}, err
	}
	return o, nil
}

func (m *MongoStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return findOne[models.Order](ctx, m.collection(OrdersCollection), id)
}

func (m *MongoStore) ListOrders(ctx context.Context, table string) ([]models.Order, error) {
	filter := bson.M{}
	if table != "" {
		filter["tableNumber"] = table
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return findAll[models.Order](ctx, m.collection(OrdersCollection), filter, opts)
}

func (m *MongoStore) UpdateOrderStatus(ctx context.Context, id string, from, to models.OrderStatus, staffID string, at time.Time) error {
	set := bson.M{"status": to, "updatedAt": at}
	if staffID != "" {
		set["waiterId"] = staffID
	}
	return m.compareAndSet(ctx, OrdersCollection, id, bson.M{"status": from}, bson.M{"$set": set})
}

func (m *MongoStore) WatchOrders(ctx context.Context) (*live.Subscription[models.Order], error) {
	fetch := func(ctx context.Context) ([]models.Order, error) {
		return m.ListOrders(ctx, "")
	}
	return watch(ctx, m, OrdersCollection, bson.D{}, fetch)
}

func (m *MongoStore) CreateWaiterCall(ctx context.Context, call models.WaiterCall) (models.WaiterCall, error) {
	call.ID = primitive.NewObjectID().Hex()
	call.Status = models.CallActive
	call.CreatedAt = now()
	call.ResolvedAt = nil
	call.ResolvedBy = ""
	if _, err := m.collection(WaiterCallsCollection).InsertOne(ctx, call); err != nil {
		return models.WaiterCall{}, err
	}
	return call, nil
}

func (m *MongoStore) GetWaiterCall(ctx context.Context, id string) (*models.WaiterCall, error) {
	return findOne[models.WaiterCall](ctx, m.collection(WaiterCallsCollection), id)
}

func (m *MongoStore) ListActiveWaiterCalls(ctx context.Context) ([]models.WaiterCall, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return findAll[models.WaiterCall](ctx, m.collection(WaiterCallsCollection), bson.M{"status": models.CallActive}, opts)
}

func (m *MongoStore) ResolveWaiterCall(ctx context.Context, id, staffID string, at time.Time) error {
	return m.compareAndSet(ctx, WaiterCallsCollection, id,
		bson.M{"status": models.CallActive},
		bson.M{"$set": bson.M{"status": models.CallResolved, "resolvedAt": at, "resolvedBy": staffID}},
	)
}

func (m *MongoStore) WatchActiveWaiterCalls(ctx context.Context) (*live.Subscription[models.WaiterCall], error) {
	return watch(ctx, m, WaiterCallsCollection, bson.D{}, m.ListActiveWaiterCalls)
}

// watch re-runs fetch whenever the collection changes. Changes come from a
// change stream when live queries are enabled and from a ticker otherwise.
func watch[T any](ctx context.Context, m *MongoStore, name string, match bson.D, fetch live.FetchFunc[T]) (*live.Subscription[T], error) {
	sctx, cancel := context.WithCancel(ctx)
	changes := make(chan struct{}, 1)
	signal := func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	}

	if !m.config.LiveQueries {
		interval := m.config.PollInterval
		if interval <= 0 {
			interval = 2 * time.Second
		}
		go func() {
			defer close(changes)
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-sctx.Done():
					return
				case <-ticker.C:
					signal()
				}
			}
		}()
		return live.Start(sctx, fetch, changes, cancel, m.logger), nil
	}

	pipeline := mongo.Pipeline{}
	if len(match) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: match}})
	}
	stream, err := m.collection(name).Watch(sctx, pipeline)
	if err != nil {
		cancel()
		return nil, err
	}
	go func() {
		defer close(changes)
		defer stream.Close(context.Background())
		for stream.Next(sctx) {
			signal()
		}
		if err := stream.Err(); err != nil && sctx.Err() == nil {
			m.logger.Warn("change stream ended", zap.String("collection", name), zap.Error(err))
		}
	}()
	return live.Start(sctx, fetch, changes, cancel, m.logger), nil
}

var _ Store = (*MongoStore)(nil)
