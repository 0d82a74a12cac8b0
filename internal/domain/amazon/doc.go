// Package amazon holds the domain model of the Amazon marketplace connector:
// the seller backend configuration, downloaded report attachments, product
// bindings, the transient canonical sale built from either ingestion path,
// and the MarketplaceClient port implemented by the MWS adapter.
//
// The package defines behaviour and invariants only; persistence lives in
// internal/infrastructure/persistence and orchestration in
// internal/application/amazon.
package amazon
