package dto

import (
	"github.com/umg/product-catalog/internal/model"
)

// ProductInput is the JSON body of create and update requests. ID may be
// omitted on create; the next free id is used then.
type ProductInput struct {
	ID     *int64   `json:"id,omitempty"`
	Name   string   `json:"name"`
	Price  *float64 `json:"price"`
	Active string   `json:"active"`
}

// ToProduct validates the input and builds the product stored under id.
func (in *ProductInput) ToProduct(id int64) (*model.Product, error) {
	if in.Price == nil {
		return nil, &model.ValidationError{Field: model.FieldPrice, Reason: "is required"}
	}
	return model.NewProduct(id, in.Name, *in.Price, in.Active)
}
