package model

import "time"

// Recommendation is another user's alternative-product suggestion attached
// to a query. QueryID references Query.ID; the referential link is enforced
// in the store, and creating or deleting a recommendation always pairs with
// the parent query's counter mutation in one transaction.
type Recommendation struct {
	ID                         string    `json:"id"`
	QueryID                    string    `json:"queryId"`
	RecommendationTitle        string    `json:"recommendationTitle"`
	RecommendedProductName     string    `json:"recommendedProductName"`
	RecommendedProductImageURL string    `json:"recommendedProductImageURL"`
	RecommendationReason       string    `json:"recommendationReason"`
	RecommendationEmail        string    `json:"recommendationEmail"` // author
	RecommenderName            string    `json:"recommenderName"`
	CreatedAt                  time.Time `json:"createdAt"`
}
