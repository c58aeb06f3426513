package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/chat-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// cartDocument holds every item of one session's cart.
type cartDocument struct {
	SessionID string            `bson:"_id"`
	Items     []domain.CartItem `bson:"items"`
	UpdatedAt time.Time         `bson:"updated_at"`
}

type MongoStore struct {
	db       *mongo.Database
	sessions *mongo.Collection
	carts    *mongo.Collection
}

func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		db:       db,
		sessions: db.Collection("sessions"),
		carts:    db.Collection("carts"),
	}
}

func (m *MongoStore) CreateIndexes(ctx context.Context) error {
	_, err := m.sessions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "status", Value: 1}, {Key: "last_activity", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (m *MongoStore) CreateSession(ctx context.Context, s *domain.Session) error {
	_, err := m.sessions.InsertOne(ctx, s)
	if mongo.IsDuplicateKeyError(err) {
		return ErrSessionExists
	}
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (m *MongoStore) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	var s domain.Session
	err := m.sessions.FindOne(ctx, bson.M{"_id": id}).Decode(&s)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &s, nil
}

func (m *MongoStore) SaveSession(ctx context.Context, s *domain.Session) error {
	update := bson.M{
		"$set": bson.M{
			"status":        s.Status,
			"last_activity": s.LastActivity,
		},
	}
	result, err := m.sessions.UpdateOne(ctx, bson.M{"_id": s.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (m *MongoStore) IdleSessions(ctx context.Context, cutoff time.Time) ([]domain.Session, error) {
	filter := bson.M{
		"status":        domain.SessionStatusOpen,
		"last_activity": bson.M{"$lt": cutoff},
	}
	cursor, err := m.sessions.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find idle sessions: %w", err)
	}
	defer cursor.Close(ctx)

	var idle []domain.Session
	if err := cursor.All(ctx, &idle); err != nil {
		return nil, fmt.Errorf("failed to decode idle sessions: %w", err)
	}
	return idle, nil
}

func (m *MongoStore) GetOrCreateItem(ctx context.Context, sessionID, sku string, initialQty int) (domain.CartItem, bool, error) {
	if initialQty <= 0 {
		return domain.CartItem{}, false, ErrInvalidQuantity
	}

	items, err := m.ListItems(ctx, sessionID)
	if err != nil {
		return domain.CartItem{}, false, err
	}
	for _, item := range items {
		if item.SKU == sku {
			return item, false, nil
		}
	}

	now := time.Now()
	item := domain.CartItem{SessionID: sessionID, SKU: sku, Quantity: initialQty, AddedAt: now}

	// the sku guard keeps (session, sku) unique even if two adds race
	filter := bson.M{"_id": sessionID, "items.sku": bson.M{"$ne": sku}}
	update := bson.M{
		"$push": bson.M{"items": item},
		"$set":  bson.M{"updated_at": now},
	}
	_, err = m.carts.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		// lost the race: the cart exists and already holds the sku
		existing, errGet := m.getItem(ctx, sessionID, sku)
		return existing, false, errGet
	}
	if err != nil {
		return domain.CartItem{}, false, fmt.Errorf("failed to add new item: %w", err)
	}
	return item, true, nil
}

func (m *MongoStore) IncrementItem(ctx context.Context, item domain.CartItem, delta int) (domain.CartItem, error) {
	if delta <= 0 {
		return domain.CartItem{}, ErrInvalidQuantity
	}

	filter := bson.M{"_id": item.SessionID, "items.sku": item.SKU}
	update := bson.M{
		"$inc": bson.M{"items.$.quantity": delta},
		"$set": bson.M{"updated_at": time.Now()},
	}
	result, err := m.carts.UpdateOne(ctx, filter, update)
	if err != nil {
		return domain.CartItem{}, fmt.Errorf("failed to update item quantity: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.CartItem{}, ErrItemNotFound
	}
	return m.getItem(ctx, item.SessionID, item.SKU)
}

func (m *MongoStore) ListItems(ctx context.Context, sessionID string) ([]domain.CartItem, error) {
	var cart cartDocument
	err := m.carts.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&cart)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return []domain.CartItem{}, nil
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	items := make([]domain.CartItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		item.SessionID = sessionID
		items = append(items, item)
	}
	return items, nil
}

func (m *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.db.Client().Disconnect(ctx)
}

func (m *MongoStore) getItem(ctx context.Context, sessionID, sku string) (domain.CartItem, error) {
	items, err := m.ListItems(ctx, sessionID)
	if err != nil {
		return domain.CartItem{}, err
	}
	for _, item := range items {
		if item.SKU == sku {
			return item, nil
		}
	}
	return domain.CartItem{}, ErrItemNotFound
}
