package providerRepo

import "github.com/rasel1911/onelimo/models"

// ProviderRepository defines data access for the service-provider pool.
type ProviderRepository interface {
	// Create inserts a new provider record.
	Create(provider *models.ServiceProvider) error
	// Update modifies an existing provider record.
	Update(provider *models.ServiceProvider) error
	// GetByID retrieves a provider by its unique ID.
	GetByID(id string) (*models.ServiceProvider, error)
	// GetActive retrieves all active, unblocked providers.
	GetActive() ([]models.ServiceProvider, error)
	// DistinctCities lists every city appearing in a provider's service locations.
	DistinctCities() ([]string, error)
}
