// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Key Principles:
// 1. Domain entities are free of GORM tags and infrastructure concerns
// 2. Persistence models contain all GORM annotations and table mappings
// 3. ToDomain / FromDomain convert between the two
// 4. Repositories use persistence models for database operations
//
// Structure:
// - base.go: BaseModel, AggregateModel and date helpers
// - catalog.go: products, categories
// - trade.go: sales, sale_items, purchases, purchase_items
// - business.go: the single businesses row
// - identity.go: users
// - sequence.go: sequence_counters
package models
