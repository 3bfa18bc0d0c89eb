package database

import "solarshare/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
// Order follows foreign-key dependencies.
func PersistentModels() []any {
	return []any{
		&models.Profile{},
		&models.Community{},
		&models.CommunityMember{},
		&models.EnergyConsumption{},
		&models.QuoteRequest{},
		&models.ProviderQuote{},
		&models.Vote{},
		&models.SelectedProvider{},
		&models.Project{},
		&models.OutboxEvent{},
	}
}
