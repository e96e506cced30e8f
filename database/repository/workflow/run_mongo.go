// File: database/repository/workflow/run_mongo.go
package workflowRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rasel1911/onelimo/database"
	"github.com/rasel1911/onelimo/models"
)

// MongoRunRepo implements WorkflowRunRepository using MongoDB.
type MongoRunRepo struct {
	coll *mongo.Collection
}

// NewMongoRunRepo creates a new instance of WorkflowRunRepository using MongoDB.
func NewMongoRunRepo() WorkflowRunRepository {
	coll := database.Collection("workflow_runs")
	repo := &MongoRunRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create workflow_runs indexes: %v\n", err)
	}
	return repo
}

// newContext creates a context with the given timeout.
func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func (r *MongoRunRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "booking_request_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "customer_link_hash", Value: 1}}, Options: options.Index().SetSparse(true)},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Create inserts a new run document.
func (r *MongoRunRepo) Create(run *models.WorkflowRun) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	now := time.Now()
	if run.StartedAt.IsZero() {
		run.StartedAt = now
	}
	run.UpdatedAt = now

	_, err := r.coll.InsertOne(ctx, run)
	if err != nil {
		return fmt.Errorf("failed to create workflow run: %w", err)
	}
	return nil
}

// Update replaces an existing run document.
func (r *MongoRunRepo) Update(run *models.WorkflowRun) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	run.UpdatedAt = time.Now()
	filter := bson.M{"id": run.ID}
	update := bson.M{"$set": run}

	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update workflow run %s: %w", run.ID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("workflow run %s not found", run.ID)
	}
	return nil
}

// UpdateSetDocument applies a partial $set update to a run.
func (r *MongoRunRepo) UpdateSetDocument(id string, updateDoc bson.M) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	updateDoc["updated_at"] = time.Now()
	update := bson.M{"$set": updateDoc}

	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update workflow run %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("workflow run %s not found", id)
	}
	return nil
}

// GetByID retrieves a run by its unique ID.
func (r *MongoRunRepo) GetByID(id string) (*models.WorkflowRun, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var run models.WorkflowRun
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&run); err != nil {
		return nil, fmt.Errorf("failed to fetch workflow run %s: %w", id, err)
	}
	return &run, nil
}

// GetByBookingRequestID retrieves the run for a booking request, or nil.
func (r *MongoRunRepo) GetByBookingRequestID(bookingRequestID string) (*models.WorkflowRun, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var run models.WorkflowRun
	err := r.coll.FindOne(ctx, bson.M{"booking_request_id": bookingRequestID}).Decode(&run)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch run for booking request %s: %w", bookingRequestID, err)
	}
	return &run, nil
}

// GetByCustomerLinkHash retrieves the run whose quote link carries the hash, or nil.
func (r *MongoRunRepo) GetByCustomerLinkHash(hash string) (*models.WorkflowRun, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var run models.WorkflowRun
	err := r.coll.FindOne(ctx, bson.M{"customer_link_hash": hash}).Decode(&run)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch run for link hash: %w", err)
	}
	return &run, nil
}
