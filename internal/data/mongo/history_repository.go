package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/leave-balance-ledger/internal/domain/history"
)

const (
	// HistoryCollectionName is the name of the status history collection in MongoDB
	HistoryCollectionName = "leave_history"
)

// HistoryRepository implements the history.Repository interface for MongoDB
type HistoryRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewHistoryRepository creates a new MongoDB history repository
func NewHistoryRepository(logger *slog.Logger, db *mongo.Database) history.Repository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Append stores a transition entry. The event ID is the document _id, so a
// replayed event hits the unique index and yields ErrDuplicateEntry.
func (r *HistoryRepository) Append(ctx context.Context, entry *history.Entry) error {
	collection := r.db.Collection(HistoryCollectionName)

	_, err := collection.InsertOne(ctx, entry)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return history.ErrDuplicateEntry{EventID: entry.EventID}
		}
		r.logger.Error("Failed to append history entry",
			"event_id", entry.EventID.String(),
			"request_id", entry.RequestID.String(),
			"error", err)
		return fmt.Errorf("failed to append history entry: %w", err)
	}

	return nil
}

// ListByRequest returns the transitions of a request, newest first.
func (r *HistoryRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*history.Entry, error) {
	collection := r.db.Collection(HistoryCollectionName)

	filter := bson.M{"request_id": requestID}
	opts := options.Find().SetSort(bson.D{{Key: "occurred_at", Value: -1}})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get history entries",
			"request_id", requestID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get history entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*history.Entry
	if err := cursor.All(ctx, &entries); err != nil {
		r.logger.Error("Failed to decode history entries",
			"request_id", requestID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to decode history entries: %w", err)
	}

	return entries, nil
}
