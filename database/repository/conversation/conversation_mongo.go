package conversationRepo

import (
	"context"
	"fmt"
	"time"

	"github.com/HummdG/taza-ticket-clean/config"
	"github.com/HummdG/taza-ticket-clean/database"
	"github.com/HummdG/taza-ticket-clean/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const currentSortKey = "CURRENT"

// conversationDoc is the stored shape: the record plus the composite key
// that distinguishes the current pointer from versioned snapshots.
type conversationDoc struct {
	UserID  string              `bson:"user_id"`
	SortKey string              `bson:"sort_key"`
	Version int64               `bson:"version"`
	Record  models.Conversation `bson:"record"`
}

// MongoConversationRepo implements ConversationRepository using MongoDB.
type MongoConversationRepo struct {
	coll *mongo.Collection
}

// NewMongoConversationRepo creates a new ConversationRepository backed by MongoDB.
func NewMongoConversationRepo() ConversationRepository {
	coll := database.MongoClient.Database(config.AppConfig.DatabaseName).Collection("conversations")
	repo := &MongoConversationRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

// ensureIndexes creates the composite key index used by conditional writes.
func (r *MongoConversationRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "sort_key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "version", Value: -1}}},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoConversationRepo) Get(ctx context.Context, userID string) (*models.Conversation, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var doc conversationDoc
	err := r.coll.FindOne(ctx, bson.M{"user_id": userID, "sort_key": currentSortKey}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch conversation for user %s: %w", userID, err)
	}
	return &doc.Record, nil
}

func (r *MongoConversationRepo) Save(ctx context.Context, conv *models.Conversation) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	prev := conv.Version
	conv.Version = prev + 1
	conv.UpdatedAt = time.Now().UTC()

	current := conversationDoc{
		UserID:  conv.UserID,
		SortKey: currentSortKey,
		Version: conv.Version,
		Record:  *conv,
	}

	if prev == 0 {
		if _, err := r.coll.InsertOne(ctx, current); err != nil {
			conv.Version = prev
			if mongo.IsDuplicateKeyError(err) {
				return ErrVersionConflict
			}
			return fmt.Errorf("failed to insert conversation for user %s: %w", conv.UserID, err)
		}
	} else {
		res, err := r.coll.ReplaceOne(ctx,
			bson.M{"user_id": conv.UserID, "sort_key": currentSortKey, "version": prev},
			current,
		)
		if err != nil {
			conv.Version = prev
			return fmt.Errorf("failed to replace conversation for user %s: %w", conv.UserID, err)
		}
		if res.MatchedCount == 0 {
			conv.Version = prev
			return ErrVersionConflict
		}
	}

	// Snapshot writes are keyed by version so history survives current
	// pointer replacement. A snapshot failure does not undo the current
	// write; it only costs one audit entry.
	snapshot := current
	snapshot.SortKey = fmt.Sprintf("v%012d", conv.Version)
	if _, err := r.coll.InsertOne(ctx, snapshot); err != nil && !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("failed to write conversation snapshot for user %s: %w", conv.UserID, err)
	}
	return nil
}

func (r *MongoConversationRepo) History(ctx context.Context, userID string, limit int) ([]models.Conversation, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if limit <= 0 {
		limit = 10
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "version", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, bson.M{
		"user_id":  userID,
		"sort_key": bson.M{"$ne": currentSortKey},
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch conversation history for user %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	var out []models.Conversation
	for cursor.Next(ctx) {
		var doc conversationDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode conversation snapshot: %w", err)
		}
		out = append(out, doc.Record)
	}
	return out, cursor.Err()
}

func (r *MongoConversationRepo) Purge(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := r.coll.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		return fmt.Errorf("failed to purge conversation for user %s: %w", userID, err)
	}
	return nil
}
