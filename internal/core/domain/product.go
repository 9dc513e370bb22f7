package domain

import "errors"

var ErrProductNotFound = errors.New("product not found")

// Product is the inventory aggregate stored in MongoDB. Many products
// reference one category; the reference is validated at the persistence layer.
type Product struct {
	ID          string  `json:"id" bson:"_id,omitempty"`
	Name        string  `json:"name" bson:"name"`
	Description string  `json:"description" bson:"description"`
	Price       float64 `json:"price" bson:"price"`
	Stock       int     `json:"stock" bson:"stock"`
	CategoryID  string  `json:"category_id" bson:"category_id"`
	SKU         string  `json:"sku" bson:"sku"`
}
