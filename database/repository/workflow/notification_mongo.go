// File: database/repository/workflow/notification_mongo.go
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

// MongoNotificationRepo implements WorkflowNotificationRepository using MongoDB.
type MongoNotificationRepo struct {
	coll *mongo.Collection
}

// NewMongoNotificationRepo creates a new instance of WorkflowNotificationRepository using MongoDB.
func NewMongoNotificationRepo() WorkflowNotificationRepository {
	coll := database.Collection("workflow_notifications")
	repo := &MongoNotificationRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create workflow_notifications indexes: %v\n", err)
	}
	return repo
}

func (r *MongoNotificationRepo) ensureIndexes() error {
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

// Create appends a new send-attempt document.
func (r *MongoNotificationRepo) Create(n *models.WorkflowNotification) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	now := time.Now()
	n.CreatedAt = now
	n.UpdatedAt = now

	_, err := r.coll.InsertOne(ctx, n)
	if err != nil {
		return fmt.Errorf("failed to create workflow notification: %w", err)
	}
	return nil
}

// GetByRunID retrieves all send attempts for a run.
func (r *MongoNotificationRepo) GetByRunID(runID string) ([]models.WorkflowNotification, error) {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, bson.M{"workflow_run_id": runID})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve notifications for run %s: %w", runID, err)
	}
	defer cursor.Close(ctx)

	var notifications []models.WorkflowNotification
	for cursor.Next(ctx) {
		var n models.WorkflowNotification
		if err := cursor.Decode(&n); err != nil {
			return nil, fmt.Errorf("failed to decode workflow notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, nil
}

// UpdateStatus sets the delivery/engagement status reported by a callback.
func (r *MongoNotificationRepo) UpdateStatus(id, status, errCode, errMessage string) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"status":        status,
		"error_code":    errCode,
		"error_message": errMessage,
		"updated_at":    time.Now(),
	}}

	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update notification %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("notification %s not found", id)
	}
	return nil
}

// MarkResponse flags the notification as having produced a response.
func (r *MongoNotificationRepo) MarkResponse(id string) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{"has_response": true, "updated_at": time.Now()}}
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to mark response on notification %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("notification %s not found", id)
	}
	return nil
}
