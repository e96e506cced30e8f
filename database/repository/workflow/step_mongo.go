// File: database/repository/workflow/step_mongo.go
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

// MongoStepRepo implements WorkflowStepRepository using MongoDB.
type MongoStepRepo struct {
	coll *mongo.Collection
}

// NewMongoStepRepo creates a new instance of WorkflowStepRepository using MongoDB.
func NewMongoStepRepo() WorkflowStepRepository {
	coll := database.Collection("workflow_steps")
	repo := &MongoStepRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create workflow_steps indexes: %v\n", err)
	}
	return repo
}

func (r *MongoStepRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "workflow_run_id", Value: 1}, {Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// CreateMany inserts all step rows for a run in one batch.
func (r *MongoStepRepo) CreateMany(steps []models.WorkflowStep) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	now := time.Now()
	docs := make([]interface{}, 0, len(steps))
	for i := range steps {
		steps[i].CreatedAt = now
		steps[i].UpdatedAt = now
		docs = append(docs, steps[i])
	}

	_, err := r.coll.InsertMany(ctx, docs)
	if err != nil {
		return fmt.Errorf("failed to create workflow steps: %w", err)
	}
	return nil
}

// Update replaces an existing step document.
func (r *MongoStepRepo) Update(step *models.WorkflowStep) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	step.UpdatedAt = time.Now()
	filter := bson.M{"id": step.ID}
	update := bson.M{"$set": step}

	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update workflow step %s: %w", step.ID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("workflow step %s not found", step.ID)
	}
	return nil
}

// GetByRunID retrieves all step rows for a run ordered by step number.
func (r *MongoStepRepo) GetByRunID(runID string) ([]models.WorkflowStep, error) {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "number", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"workflow_run_id": runID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve steps for run %s: %w", runID, err)
	}
	defer cursor.Close(ctx)

	var steps []models.WorkflowStep
	for cursor.Next(ctx) {
		var s models.WorkflowStep
		if err := cursor.Decode(&s); err != nil {
			return nil, fmt.Errorf("failed to decode workflow step: %w", err)
		}
		steps = append(steps, s)
	}
	return steps, nil
}

// GetByRunAndName retrieves one step row by run and fixed step name.
func (r *MongoStepRepo) GetByRunAndName(runID, name string) (*models.WorkflowStep, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var step models.WorkflowStep
	filter := bson.M{"workflow_run_id": runID, "name": name}
	if err := r.coll.FindOne(ctx, filter).Decode(&step); err != nil {
		return nil, fmt.Errorf("failed to fetch step %q for run %s: %w", name, runID, err)
	}
	return &step, nil
}
