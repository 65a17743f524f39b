package dto

import (
	"github.com/umg/product-catalog/internal/model"
)

type ProductResponse struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
	Active string  `json:"active"`
	Status string  `json:"status"`
}

type ExistsResponse struct {
	ID     int64 `json:"id"`
	Exists bool  `json:"exists"`
}

type NextIDResponse struct {
	NextID int64 `json:"next_id"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

func ToProductResponse(p *model.Product) *ProductResponse {
	return &ProductResponse{
		ID:     p.ID(),
		Name:   p.Name(),
		Price:  p.Price(),
		Active: string(p.Active()),
		Status: p.FormattedStatus(),
	}
}

func ToProductResponseList(products []*model.Product) []*ProductResponse {
	responses := make([]*ProductResponse, len(products))
	for i, p := range products {
		responses[i] = ToProductResponse(p)
	}
	return responses
}
