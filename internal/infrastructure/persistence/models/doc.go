// Package models contains GORM-specific persistence models that map to database tables.
// Domain entities stay free of ORM tags; repositories convert with ToDomain/FromDomain.
//
// Collections the document-shaped API embeds in a record (a customer's order ids
// and campaign engagements, a campaign's audience) are stored as JSON columns.
// Order line items get their own table.
package models
