package model

import (
	"math"
	"strconv"
	"strings"
)

// Status is the stored encoding of the active flag.
type Status string

const (
	StatusActive   Status = "Y"
	StatusInactive Status = "N"
)

const (
	activeLabel   = "Active"
	inactiveLabel = "Inactive"
)

// StatusFromBool maps a checkbox-style flag to its stored encoding.
func StatusFromBool(active bool) Status {
	if active {
		return StatusActive
	}
	return StatusInactive
}

// Product is one row of the products table. The zero value is not valid;
// build products with NewProduct or ParseProduct.
type Product struct {
	id     int64
	name   string
	price  float64
	active Status
}

func NewProduct(id int64, name string, price float64, active string) (*Product, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}
	if err := validatePrice(price); err != nil {
		return nil, err
	}
	status, err := parseStatus(active)
	if err != nil {
		return nil, err
	}

	return &Product{
		id:     id,
		name:   name,
		price:  price,
		active: status,
	}, nil
}

// ParseProduct builds a product from raw form text. Unparsable numbers are
// reported as validation errors on the matching field.
func ParseProduct(idText, nameText, priceText, activeText string) (*Product, error) {
	idText = strings.TrimSpace(idText)
	if idText == "" {
		return nil, &ValidationError{Field: FieldID, Reason: "is required"}
	}
	id, err := strconv.ParseInt(idText, 10, 64)
	if err != nil {
		return nil, &ValidationError{Field: FieldID, Reason: "must be an integer"}
	}

	priceText = strings.TrimSpace(priceText)
	if priceText == "" {
		return nil, &ValidationError{Field: FieldPrice, Reason: "is required"}
	}
	price, err := strconv.ParseFloat(priceText, 64)
	if err != nil {
		return nil, &ValidationError{Field: FieldPrice, Reason: "must be a number"}
	}

	return NewProduct(id, nameText, price, strings.TrimSpace(activeText))
}

func (p *Product) ID() int64      { return p.id }
func (p *Product) Name() string   { return p.name }
func (p *Product) Price() float64 { return p.price }
func (p *Product) Active() Status { return p.active }

func (p *Product) SetName(name string) error {
	name, err := normalizeName(name)
	if err != nil {
		return err
	}
	p.name = name
	return nil
}

func (p *Product) SetPrice(price float64) error {
	if err := validatePrice(price); err != nil {
		return err
	}
	p.price = price
	return nil
}

func (p *Product) SetActive(flag string) error {
	status, err := parseStatus(flag)
	if err != nil {
		return err
	}
	p.active = status
	return nil
}

// ReplaceID is the only way to change the key of an existing product.
func (p *Product) ReplaceID(id int64) error {
	if err := validateID(id); err != nil {
		return err
	}
	p.id = id
	return nil
}

func (p *Product) Clone() *Product {
	c := *p
	return &c
}

// Validate rechecks every invariant. It only fails for products that were
// not built through NewProduct, such as a zero value.
func (p *Product) Validate() error {
	if p == nil {
		return &ValidationError{Field: FieldProduct, Reason: "is required"}
	}
	_, err := NewProduct(p.id, p.name, p.price, string(p.active))
	return err
}

func (p *Product) IsActive() bool {
	return p.active == StatusActive
}

// FormattedStatus returns the display label of the active flag.
func (p *Product) FormattedStatus() string {
	if p.IsActive() {
		return activeLabel
	}
	return inactiveLabel
}

// Equal reports key identity: two products are the same record when their
// ids match, whatever their other fields hold.
func (p *Product) Equal(other *Product) bool {
	if p == nil || other == nil {
		return false
	}
	return p.id == other.id
}

func validateID(id int64) error {
	if id <= 0 {
		return &ValidationError{Field: FieldID, Reason: "must be greater than zero"}
	}
	return nil
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &ValidationError{Field: FieldName, Reason: "must not be empty"}
	}
	return name, nil
}

func validatePrice(price float64) error {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return &ValidationError{Field: FieldPrice, Reason: "must be a finite number"}
	}
	if price < 0 {
		return &ValidationError{Field: FieldPrice, Reason: "must not be negative"}
	}
	return nil
}

func parseStatus(flag string) (Status, error) {
	switch Status(flag) {
	case StatusActive:
		return StatusActive, nil
	case StatusInactive:
		return StatusInactive, nil
	}
	return "", &ValidationError{Field: FieldActive, Reason: `must be "Y" or "N"`}
}
