// Package models contains GORM persistence models that map to database tables.
// Models are kept apart from domain aggregates so the domain stays free of ORM
// tags; each model converts with ToDomain and a ...ModelFromDomain constructor.
//
// Owned collections that are only ever read with their parent (installments,
// cashbox lines, count items, document payments) are stored as JSON columns.
// Document lines (invoice, purchase order and return items) have their own tables.
package models
