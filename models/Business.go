package models

// Business owns recipes and, through its locations, products.
type Business struct {
	Model
	Name      string     `gorm:"not null" json:"name"`
	Locations []Location `gorm:"foreignKey:BusinessID" json:"locations,omitempty"`
}

// Location is a physical site of a business holding its own stock.
type Location struct {
	Model
	BusinessID string    `gorm:"size:36;index;not null" json:"business_id"`
	Business   *Business `gorm:"foreignKey:BusinessID" json:"business,omitempty"`
	Name       string    `gorm:"not null" json:"name"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
}

// HasCoordinates reports whether both latitude and longitude are known.
func (l Location) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}
