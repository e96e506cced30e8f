// File: database/repository/workflow/quote_mongo.go
package workflowRepo

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rasel1911/onelimo/database"
	"github.com/rasel1911/onelimo/models"
)

// MongoQuoteRepo implements WorkflowQuoteRepository using MongoDB.
type MongoQuoteRepo struct {
	coll *mongo.Collection
}

// NewMongoQuoteRepo creates a new instance of WorkflowQuoteRepository using MongoDB.
func NewMongoQuoteRepo() WorkflowQuoteRepository {
	coll := database.Collection("workflow_quotes")
	repo := &MongoQuoteRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create workflow_quotes indexes: %v\n", err)
	}
	return repo
}

func (r *MongoQuoteRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "workflow_run_id", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Create inserts a new quote document.
func (r *MongoQuoteRepo) Create(quote *models.WorkflowQuote) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	now := time.Now()
	quote.CreatedAt = now
	quote.UpdatedAt = now

	_, err := r.coll.InsertOne(ctx, quote)
	if err != nil {
		return fmt.Errorf("failed to create workflow quote: %w", err)
	}
	return nil
}

// GetByID retrieves a quote by its unique ID.
func (r *MongoQuoteRepo) GetByID(id string) (*models.WorkflowQuote, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var q models.WorkflowQuote
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&q); err != nil {
		return nil, fmt.Errorf("failed to fetch workflow quote %s: %w", id, err)
	}
	return &q, nil
}

// GetByRunID retrieves all quotes for a run.
func (r *MongoQuoteRepo) GetByRunID(runID string) ([]models.WorkflowQuote, error) {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, bson.M{"workflow_run_id": runID})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve quotes for run %s: %w", runID, err)
	}
	defer cursor.Close(ctx)

	var quotes []models.WorkflowQuote
	for cursor.Next(ctx) {
		var q models.WorkflowQuote
		if err := cursor.Decode(&q); err != nil {
			return nil, fmt.Errorf("failed to decode workflow quote: %w", err)
		}
		quotes = append(quotes, q)
	}
	return quotes, nil
}

// SelectByUser marks one quote as user-selected and clears the flag on every
// other quote of the same run, so at most one winner exists per run.
func (r *MongoQuoteRepo) SelectByUser(runID, quoteID string) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	now := time.Now()

	// Clear any previous selection first.
	clear := bson.M{"$set": bson.M{"is_selected_by_user": false, "updated_at": now}}
	if _, err := r.coll.UpdateMany(ctx, bson.M{"workflow_run_id": runID, "is_selected_by_user": true}, clear); err != nil {
		return fmt.Errorf("failed to clear quote selection for run %s: %w", runID, err)
	}

	set := bson.M{"$set": bson.M{"is_selected_by_user": true, "updated_at": now}}
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": quoteID, "workflow_run_id": runID}, set)
	if err != nil {
		return fmt.Errorf("failed to select quote %s: %w", quoteID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("quote %s not found in run %s", quoteID, runID)
	}
	return nil
}
