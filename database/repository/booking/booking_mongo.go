// File: database/repository/booking/booking_mongo.go
package bookingRepo

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

// BookingRequestRepository defines data access for booking requests.
type BookingRequestRepository interface {
	// Create inserts a new booking request record.
	Create(req *models.BookingRequest) error
	// GetByID retrieves a booking request by its unique ID.
	GetByID(id string) (*models.BookingRequest, error)
}

// MongoBookingRequestRepo implements BookingRequestRepository using MongoDB.
type MongoBookingRequestRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRequestRepo creates a new instance of BookingRequestRepository using MongoDB.
func NewMongoBookingRequestRepo() BookingRequestRepository {
	coll := database.Collection("booking_requests")
	repo := &MongoBookingRequestRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create booking_requests indexes: %v\n", err)
	}
	return repo
}

func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func (r *MongoBookingRequestRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Create inserts a new booking request document.
func (r *MongoBookingRequestRepo) Create(req *models.BookingRequest) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}

	_, err := r.coll.InsertOne(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to create booking request: %w", err)
	}
	return nil
}

// GetByID retrieves a booking request by its unique ID.
func (r *MongoBookingRequestRepo) GetByID(id string) (*models.BookingRequest, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var req models.BookingRequest
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&req); err != nil {
		return nil, fmt.Errorf("failed to fetch booking request %s: %w", id, err)
	}
	return &req, nil
}
