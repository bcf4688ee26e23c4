// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data, similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// Query is a user-submitted report about a boycott-worthy product.
//
// The `json:"..."` tags control the wire shape; the field names mirror what
// the web client sends on /add-query so documents round-trip unchanged.
//
// RecommendationCount is derived state: it must equal the number of live
// recommendations referencing this query. It is only ever mutated inside the
// same store transaction that inserts or deletes a recommendation, and it is
// deliberately absent from the update whitelist (see repository/sqlite).
type Query struct {
	ID                      string    `json:"id"`
	UserEmail               string    `json:"userEmail"` // owner
	UserName                string    `json:"userName"`
	QueryTitle              string    `json:"queryTitle"`
	ProductName             string    `json:"productName"`
	ProductBrand            string    `json:"productBrand"`
	ProductImageURL         string    `json:"productImageURL"`
	BoycottingReasonDetails string    `json:"boycottingReasonDetails"`
	Timestamp               time.Time `json:"timestamp"`
	RecommendationCount     int64     `json:"recommendationCount"`
}

// QueryUpdate carries the mutable fields of a query.
//
// Only these six fields may change after creation. Anything else a client
// sends on PUT /update/{id} is dropped: the owner and the recommendation
// counter are never writable through update.
type QueryUpdate struct {
	QueryTitle              string    `json:"queryTitle"`
	ProductName             string    `json:"productName"`
	ProductBrand            string    `json:"productBrand"`
	ProductImageURL         string    `json:"productImageURL"`
	BoycottingReasonDetails string    `json:"boycottingReasonDetails"`
	Timestamp               time.Time `json:"timestamp"`
}
