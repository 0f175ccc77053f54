// internal/domain/models/geo.go
package models

// GeoPoint is a GeoJSON point as stored in Mongo 2dsphere-indexed fields.
// Coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
	Address     string    `bson:"address,omitempty" json:"address,omitempty"`
}

// NewGeoPoint builds a GeoJSON point from longitude/latitude.
func NewGeoPoint(lng, lat float64, address string) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: []float64{lng, lat}, Address: address}
}
