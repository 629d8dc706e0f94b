package models

import "time"

// Listing is a single property record, for sale or for rent
type Listing struct {
	ID          string  `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title       string  `gorm:"type:text;not null" json:"title"`
	Description string  `gorm:"type:text" json:"description"`
	Price       float64 `gorm:"type:decimal(14,2);index" json:"price"`

	Bedrooms     int          `gorm:"type:int" json:"bedrooms"`
	Bathrooms    int          `gorm:"type:int" json:"bathrooms"`
	SquareFeet   float64      `gorm:"type:decimal(12,2)" json:"squareFeet"`
	PropertyType PropertyType `gorm:"type:varchar(32);index" json:"propertyType"`
	ForRent      bool         `gorm:"not null;default:false;index" json:"forRent"`

	Lat      float64 `gorm:"type:double;not null" json:"lat"`
	Lng      float64 `gorm:"type:double;not null" json:"lng"`
	ImageURL string  `gorm:"type:text" json:"imageUrl,omitempty"`
	Address  string  `gorm:"type:text" json:"address,omitempty"`

	// Epoch milliseconds, stamped once by the store on creation
	CreatedAt int64 `gorm:"type:bigint;not null;autoCreateTime:false;index:idx_listings_created_at,sort:desc" json:"createdAt"`
}

// TableName はテーブル名を明示的に指定
func (Listing) TableName() string {
	return "listings"
}

// Point returns the listing coordinate
func (l Listing) Point() LatLng {
	return LatLng{Lat: l.Lat, Lng: l.Lng}
}

// Input strips the store-assigned fields
func (l Listing) Input() ListingInput {
	return ListingInput{
		Title:        l.Title,
		Description:  l.Description,
		Price:        l.Price,
		Bedrooms:     l.Bedrooms,
		Bathrooms:    l.Bathrooms,
		SquareFeet:   l.SquareFeet,
		PropertyType: l.PropertyType,
		ForRent:      l.ForRent,
		Lat:          l.Lat,
		Lng:          l.Lng,
		ImageURL:     l.ImageURL,
		Address:      l.Address,
	}
}

// PropertyType is an open enumeration; empty means unspecified
type PropertyType string

const (
	PropertyTypeResidential PropertyType = "Residential"
	PropertyTypeCondo       PropertyType = "Condo"
	PropertyTypeTownhome    PropertyType = "Townhome"
	PropertyTypeMultiFamily PropertyType = "Multi-Family"
)

// KnownPropertyTypes lists the types offered by the add/edit form
var KnownPropertyTypes = []PropertyType{
	PropertyTypeResidential,
	PropertyTypeCondo,
	PropertyTypeTownhome,
	PropertyTypeMultiFamily,
}

// ListingInput is a listing without id and createdAt, as submitted for creation
type ListingInput struct {
	Title        string       `json:"title" yaml:"title"`
	Description  string       `json:"description" yaml:"description"`
	Price        float64      `json:"price" yaml:"price"`
	Bedrooms     int          `json:"bedrooms" yaml:"bedrooms"`
	Bathrooms    int          `json:"bathrooms" yaml:"bathrooms"`
	SquareFeet   float64      `json:"squareFeet" yaml:"squareFeet"`
	PropertyType PropertyType `json:"propertyType" yaml:"propertyType"`
	ForRent      bool         `json:"forRent" yaml:"forRent"`
	Lat          float64      `json:"lat" yaml:"lat"`
	Lng          float64      `json:"lng" yaml:"lng"`
	ImageURL     string       `json:"imageUrl" yaml:"imageUrl"`
	Address      string       `json:"address,omitempty" yaml:"address"`
}

// ToListing builds the stored entity
func (in ListingInput) ToListing(id string, createdAt time.Time) Listing {
	return Listing{
		ID:           id,
		Title:        in.Title,
		Description:  in.Description,
		Price:        in.Price,
		Bedrooms:     in.Bedrooms,
		Bathrooms:    in.Bathrooms,
		SquareFeet:   in.SquareFeet,
		PropertyType: in.PropertyType,
		ForRent:      in.ForRent,
		Lat:          in.Lat,
		Lng:          in.Lng,
		ImageURL:     in.ImageURL,
		Address:      in.Address,
		CreatedAt:    createdAt.UnixMilli(),
	}
}

// ListingPatch carries the fields of an edit. Nil fields are left untouched;
// id and createdAt can never be patched.
type ListingPatch struct {
	Title        *string       `json:"title,omitempty"`
	Description  *string       `json:"description,omitempty"`
	Price        *float64      `json:"price,omitempty"`
	Bedrooms     *int          `json:"bedrooms,omitempty"`
	Bathrooms    *int          `json:"bathrooms,omitempty"`
	SquareFeet   *float64      `json:"squareFeet,omitempty"`
	PropertyType *PropertyType `json:"propertyType,omitempty"`
	ForRent      *bool         `json:"forRent,omitempty"`
	Lat          *float64      `json:"lat,omitempty"`
	Lng          *float64      `json:"lng,omitempty"`
	ImageURL     *string       `json:"imageUrl,omitempty"`
	Address      *string       `json:"address,omitempty"`
}

// IsEmpty reports whether the patch changes nothing
func (p ListingPatch) IsEmpty() bool {
	return len(p.Columns()) == 0
}

// Apply returns a copy of l with the patch applied
func (p ListingPatch) Apply(l Listing) Listing {
	if p.Title != nil {
		l.Title = *p.Title
	}
	if p.Description != nil {
		l.Description = *p.Description
	}
	if p.Price != nil {
		l.Price = *p.Price
	}
	if p.Bedrooms != nil {
		l.Bedrooms = *p.Bedrooms
	}
	if p.Bathrooms != nil {
		l.Bathrooms = *p.Bathrooms
	}
	if p.SquareFeet != nil {
		l.SquareFeet = *p.SquareFeet
	}
	if p.PropertyType != nil {
		l.PropertyType = *p.PropertyType
	}
	if p.ForRent != nil {
		l.ForRent = *p.ForRent
	}
	if p.Lat != nil {
		l.Lat = *p.Lat
	}
	if p.Lng != nil {
		l.Lng = *p.Lng
	}
	if p.ImageURL != nil {
		l.ImageURL = *p.ImageURL
	}
	if p.Address != nil {
		l.Address = *p.Address
	}
	return l
}

// Columns maps the set fields to column names, for partial updates
func (p ListingPatch) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.Price != nil {
		cols["price"] = *p.Price
	}
	if p.Bedrooms != nil {
		cols["bedrooms"] = *p.Bedrooms
	}
	if p.Bathrooms != nil {
		cols["bathrooms"] = *p.Bathrooms
	}
	if p.SquareFeet != nil {
		cols["square_feet"] = *p.SquareFeet
	}
	if p.PropertyType != nil {
		cols["property_type"] = string(*p.PropertyType)
	}
	if p.ForRent != nil {
		cols["for_rent"] = *p.ForRent
	}
	if p.Lat != nil {
		cols["lat"] = *p.Lat
	}
	if p.Lng != nil {
		cols["lng"] = *p.Lng
	}
	if p.ImageURL != nil {
		cols["image_url"] = *p.ImageURL
	}
	if p.Address != nil {
		cols["address"] = *p.Address
	}
	return cols
}
