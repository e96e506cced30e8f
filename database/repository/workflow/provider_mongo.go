// File: database/repository/workflow/provider_mongo.go
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

// MongoWorkflowProviderRepo implements WorkflowProviderRepository using MongoDB.
type MongoWorkflowProviderRepo struct {
	coll *mongo.Collection
}

// NewMongoWorkflowProviderRepo creates a new instance of WorkflowProviderRepository using MongoDB.
func NewMongoWorkflowProviderRepo() WorkflowProviderRepository {
	coll := database.Collection("workflow_providers")
	repo := &MongoWorkflowProviderRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create workflow_providers indexes: %v\n", err)
	}
	return repo
}

func (r *MongoWorkflowProviderRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "workflow_run_id", Value: 1}}},
		{Keys: bson.D{{Key: "link_hash", Value: 1}}, Options: options.Index().SetSparse(true)},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// CreateMany inserts the contacted-provider rows for a run in one batch.
func (r *MongoWorkflowProviderRepo) CreateMany(providers []models.WorkflowProvider) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	now := time.Now()
	docs := make([]interface{}, 0, len(providers))
	for i := range providers {
		providers[i].CreatedAt = now
		providers[i].UpdatedAt = now
		docs = append(docs, providers[i])
	}

	_, err := r.coll.InsertMany(ctx, docs)
	if err != nil {
		return fmt.Errorf("failed to create workflow providers: %w", err)
	}
	return nil
}

// Update replaces an existing contacted-provider document.
func (r *MongoWorkflowProviderRepo) Update(provider *models.WorkflowProvider) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	provider.UpdatedAt = time.Now()
	filter := bson.M{"id": provider.ID}
	update := bson.M{"$set": provider}

	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update workflow provider %s: %w", provider.ID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("workflow provider %s not found", provider.ID)
	}
	return nil
}

// UpdateSetDocument applies a partial $set update to a contacted provider.
func (r *MongoWorkflowProviderRepo) UpdateSetDocument(id string, updateDoc bson.M) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	updateDoc["updated_at"] = time.Now()
	update := bson.M{"$set": updateDoc}

	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update workflow provider %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("workflow provider %s not found", id)
	}
	return nil
}

// GetByID retrieves a contacted provider by its unique ID.
func (r *MongoWorkflowProviderRepo) GetByID(id string) (*models.WorkflowProvider, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var p models.WorkflowProvider
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to fetch workflow provider %s: %w", id, err)
	}
	return &p, nil
}

// GetByRunID retrieves all contacted providers for a run.
func (r *MongoWorkflowProviderRepo) GetByRunID(runID string) ([]models.WorkflowProvider, error) {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, bson.M{"workflow_run_id": runID})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve providers for run %s: %w", runID, err)
	}
	defer cursor.Close(ctx)

	var providers []models.WorkflowProvider
	for cursor.Next(ctx) {
		var p models.WorkflowProvider
		if err := cursor.Decode(&p); err != nil {
			return nil, fmt.Errorf("failed to decode workflow provider: %w", err)
		}
		providers = append(providers, p)
	}
	return providers, nil
}

// GetByLinkHash retrieves the contacted provider holding the link hash, or nil.
func (r *MongoWorkflowProviderRepo) GetByLinkHash(hash string) (*models.WorkflowProvider, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var p models.WorkflowProvider
	err := r.coll.FindOne(ctx, bson.M{"link_hash": hash}).Decode(&p)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch workflow provider by link hash: %w", err)
	}
	return &p, nil
}
