package models

import (
	"strconv"
	"strings"
)

// ListingFromDocument normalizes a loosely typed store document. Missing or
// mistyped numeric fields become 0, which means a listing with no price or
// bedroom count silently fails any non-zero threshold filter.
func ListingFromDocument(id string, doc map[string]interface{}) Listing {
	return Listing{
		ID:           id,
		Title:        getString(doc, "title"),
		Description:  getString(doc, "description"),
		Price:        getFloat(doc, "price"),
		Bedrooms:     int(getFloat(doc, "bedrooms")),
		Bathrooms:    int(getFloat(doc, "bathrooms")),
		SquareFeet:   getFloat(doc, "squareFeet"),
		PropertyType: PropertyType(getString(doc, "propertyType")),
		ForRent:      getBool(doc, "forRent"),
		Lat:          getFloat(doc, "lat"),
		Lng:          getFloat(doc, "lng"),
		ImageURL:     getString(doc, "imageUrl"),
		Address:      getString(doc, "address"),
		CreatedAt:    int64(getFloat(doc, "createdAt")),
	}
}

// getString safely extracts a string from map
func getString(m map[string]interface{}, key string) string {
	if val, ok := m[key].(string); ok {
		return val
	}
	return ""
}

// getFloat treats anything non-finite as missing
func getFloat(m map[string]interface{}, key string) float64 {
	if f := rawFloat(m, key); finite(f) {
		return f
	}
	return 0
}

func rawFloat(m map[string]interface{}, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case uint64:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err == nil {
			return f
		}
	}
	return 0
}

func getBool(m map[string]interface{}, key string) bool {
	switch v := m[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}
