package models

import (
	"math"
	"strings"
)

// ValidationError is a user-correctable input problem. The store is never
// called when one is returned.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}

// ValidateListing checks a create or edit payload. Checks run in form order
// and the first failure is returned.
func ValidateListing(in ListingInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return invalid("title", "Title is required.")
	}
	if strings.TrimSpace(in.ImageURL) == "" {
		return invalid("imageUrl", "Image URL is required.")
	}
	if !finite(in.Price) || in.Price <= 0 {
		return invalid("price", "Price must be greater than 0.")
	}
	if in.Bedrooms <= 0 {
		return invalid("bedrooms", "Bedrooms must be at least 1.")
	}
	if in.Bathrooms <= 0 {
		return invalid("bathrooms", "Bathrooms must be at least 1.")
	}
	if !finite(in.SquareFeet) || in.SquareFeet <= 0 {
		return invalid("squareFeet", "Square feet must be greater than 0.")
	}
	if strings.TrimSpace(in.Description) == "" {
		return invalid("description", "Description is required.")
	}
	if !(in.Lat >= -90 && in.Lat <= 90) {
		return invalid("lat", "Latitude must be between -90 and 90.")
	}
	if !(in.Lng >= -180 && in.Lng <= 180) {
		return invalid("lng", "Longitude must be between -180 and 180.")
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
