package models

import "time"

// ServiceProvider statuses.
const (
	ProviderActive   = "active"
	ProviderInactive = "inactive"
)

// ServiceProvider is a chauffeur company in the dispatch pool.
type ServiceProvider struct {
	ID               string    `bson:"id" json:"id"`
	Name             string    `bson:"name" json:"name"`
	Email            string    `bson:"email,omitempty" json:"email,omitempty"`
	Phone            string    `bson:"phone,omitempty" json:"phone,omitempty"`
	Status           string    `bson:"status" json:"status"` // "active" or "inactive"
	Blocked          bool      `bson:"blocked,omitempty" json:"blocked,omitempty"`
	ServiceLocations []string  `bson:"service_locations" json:"serviceLocations"` // cities served
	AreaCovered      []string  `bson:"area_covered" json:"areaCovered"`           // postcode prefixes, "all" matches everything
	ServiceTypes     []string  `bson:"service_types" json:"serviceTypes"`         // vehicle classes offered
	Reputation       float64   `bson:"reputation" json:"reputation"`              // 0-100
	ResponseTime     int       `bson:"response_time" json:"responseTime"`         // typical minutes to respond
	CreatedAt        time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `bson:"updated_at" json:"updatedAt"`
}

// Eligible reports whether the provider may be matched at all.
func (p ServiceProvider) Eligible() bool {
	return p.Status == ProviderActive && !p.Blocked
}

// Contact returns the provider's reachable channels.
func (p ServiceProvider) Contact() ContactInfo {
	return ContactInfo{Name: p.Name, Email: p.Email, Phone: p.Phone}
}
