package models

import "time"

// BookingRequest is the immutable journey request the workflow fulfills.
// It is created by the booking front-end and read-only to the engine.
type BookingRequest struct {
	ID                   string    `bson:"id" json:"id"`
	CustomerID           string    `bson:"customer_id" json:"customerId"`
	Pickup               Location  `bson:"pickup" json:"pickup"`
	Dropoff              Location  `bson:"dropoff" json:"dropoff"`
	PickupTime           time.Time `bson:"pickup_time" json:"pickupTime"`
	EstimatedDropoffTime time.Time `bson:"estimated_dropoff_time,omitempty" json:"estimatedDropoffTime,omitempty"`
	PassengerCount       int       `bson:"passenger_count" json:"passengerCount"`
	VehicleType          string    `bson:"vehicle_type" json:"vehicleType"` // e.g. "sedan", "suv", "hummer", "other"
	SpecialRequests      string    `bson:"special_requests,omitempty" json:"specialRequests,omitempty"`
	CreatedAt            time.Time `bson:"created_at" json:"createdAt"`
}

// User is the requester on whose behalf a booking request was raised.
type User struct {
	ID        string    `bson:"id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Email     string    `bson:"email,omitempty" json:"email,omitempty"`
	Phone     string    `bson:"phone,omitempty" json:"phone,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Contact returns the user's reachable channels.
func (u User) Contact() ContactInfo {
	return ContactInfo{Name: u.Name, Email: u.Email, Phone: u.Phone}
}
