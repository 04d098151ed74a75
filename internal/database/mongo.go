package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ProductParser/internal/models"
	"ProductParser/pkg/config"
)

const (
	connectTimeout = 10 * time.Second
	pingTimeout    = 3 * time.Second
)

// Store persists parsed records in MongoDB, one document per product URL.
// Offers live in the products collection, reviews in the reviews collection,
// both keyed by record id inside the document.
type Store struct {
	client   *mongo.Client
	products *mongo.Collection
	reviews  *mongo.Collection
}

// Connect dials MongoDB, verifies the connection and makes sure the unique
// url indexes exist.
func Connect(cfg config.MongoConfig) (*Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URL))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	db := client.Database(cfg.Database)
	store := &Store{
		client:   client,
		products: db.Collection("products"),
		reviews:  db.Collection("reviews"),
	}
	if err := store.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("creating url indexes: %w", err)
	}

	slog.Info("connected to mongodb", "database", cfg.Database)
	return store, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "url", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	for _, coll := range []*mongo.Collection{s.products, s.reviews} {
		if _, err := coll.Indexes().CreateOne(ctx, index); err != nil {
			return err
		}
	}
	return nil
}

// Available reports whether the database answers a ping right now. Parse
// requests keep working without it, merges are skipped.
func (s *Store) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.client.Ping(ctx, nil); err != nil {
		slog.Error("mongodb unreachable", "error", err)
		return false
	}
	return true
}

type offersDoc struct {
	Offers map[string]models.Offer `bson:"offers"`
}

type commentsDoc struct {
	Comments map[string]models.Comment `bson:"comments"`
}

// MergeOffers folds freshly parsed offers into the stored document for url.
// Records with a known id replace the stored ones, all other stored records
// stay untouched.
func (s *Store) MergeOffers(ctx context.Context, url string, offers []models.Offer) error {
	var doc offersDoc
	err := s.products.FindOne(ctx, bson.M{"url": url}).Decode(&doc)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("loading offers for %s: %w", url, err)
	}

	merged := overlayOffers(doc.Offers, offers)
	if _, err := s.products.UpdateOne(ctx,
		bson.M{"url": url},
		bson.M{"$set": bson.M{"url": url, "offers": merged}},
		options.Update().SetUpsert(true),
	); err != nil {
		return fmt.Errorf("storing offers for %s: %w", url, err)
	}

	slog.Info("merged offers", "url", url, "parsed", len(offers), "stored", len(merged))
	return nil
}

// MergeComments is MergeOffers for review records.
func (s *Store) MergeComments(ctx context.Context, url string, comments []models.Comment) error {
	var doc commentsDoc
	err := s.reviews.FindOne(ctx, bson.M{"url": url}).Decode(&doc)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("loading comments for %s: %w", url, err)
	}

	merged := overlayComments(doc.Comments, comments)
	if _, err := s.reviews.UpdateOne(ctx,
		bson.M{"url": url},
		bson.M{"$set": bson.M{"url": url, "comments": merged}},
		options.Update().SetUpsert(true),
	); err != nil {
		return fmt.Errorf("storing comments for %s: %w", url, err)
	}

	slog.Info("merged comments", "url", url, "parsed", len(comments), "stored", len(merged))
	return nil
}

func overlayOffers(existing map[string]models.Offer, fresh []models.Offer) map[string]models.Offer {
	merged := make(map[string]models.Offer, len(existing)+len(fresh))
	for id, offer := range existing {
		merged[id] = offer
	}
	for _, offer := range fresh {
		merged[offer.ID] = offer
	}
	return merged
}

func overlayComments(existing map[string]models.Comment, fresh []models.Comment) map[string]models.Comment {
	merged := make(map[string]models.Comment, len(existing)+len(fresh))
	for id, comment := range existing {
		merged[id] = comment
	}
	for _, comment := range fresh {
		merged[comment.ID] = comment
	}
	return merged
}

// Close releases the underlying connections.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
