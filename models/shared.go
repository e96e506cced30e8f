package models

// Location identifies one end of a journey.
type Location struct {
	City     string `bson:"city" json:"city"`
	Postcode string `bson:"postcode,omitempty" json:"postcode,omitempty"`
	Address  string `bson:"address,omitempty" json:"address,omitempty"`
}

// ContactInfo carries the reachable channels for a person.
type ContactInfo struct {
	Name  string `bson:"name" json:"name"`
	Email string `bson:"email,omitempty" json:"email,omitempty"`
	Phone string `bson:"phone,omitempty" json:"phone,omitempty"`
}

// HasAnyChannel reports whether at least one deliverable channel exists.
func (c ContactInfo) HasAnyChannel() bool {
	return c.Email != "" || c.Phone != ""
}
