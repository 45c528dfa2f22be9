package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// GeoPoint is a WGS84 coordinate. Storage order is (longitude, latitude).
type GeoPoint struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

func (p GeoPoint) Validate() error {
	if math.IsNaN(p.Longitude) || math.IsNaN(p.Latitude) ||
		math.IsInf(p.Longitude, 0) || math.IsInf(p.Latitude, 0) {
		return ErrInvalidCoordinates
	}
	if p.Latitude < -90 || p.Latitude > 90 || p.Longitude < -180 || p.Longitude > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}

func (p GeoPoint) Point() orb.Point {
	return orb.Point{p.Longitude, p.Latitude}
}

// DistanceTo returns the great-circle (haversine) distance in meters.
func (p GeoPoint) DistanceTo(other GeoPoint) float64 {
	return geo.DistanceHaversine(p.Point(), other.Point())
}

// UserLocation is one row per user; the geography column is read and
// written through raw PostGIS SQL in the repository.
type UserLocation struct {
	ID        uuid.UUID    `json:"id"`
	UserID    uuid.UUID    `json:"userId"`
	Location  GeoPoint     `json:"location"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	User      *UserSummary `json:"user,omitempty"`
}

// NearbyQuery drives the proximity search. Radius is in meters and the
// boundary is inclusive.
type NearbyQuery struct {
	Center      GeoPoint
	Radius      float64
	DriversOnly bool
	Limit       int
}

func (q NearbyQuery) Validate(maxRadius float64) error {
	if err := q.Center.Validate(); err != nil {
		return err
	}
	if math.IsNaN(q.Radius) || q.Radius <= 0 || (maxRadius > 0 && q.Radius > maxRadius) {
		return ErrInvalidRadius
	}
	return nil
}

// NearbyUser is one ranked proximity match.
type NearbyUser struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"userId"`
	Location    GeoPoint  `json:"location"`
	FullName    string    `json:"fullName"`
	PhoneNumber string    `json:"phoneNumber"`
	UserType    UserType  `json:"userType"`
	Distance    float64   `json:"distance"`
}

// LocationEvent is published after a location upsert for live fan-out.
type LocationEvent struct {
	UserID   uuid.UUID `json:"userId"`
	UserType UserType  `json:"userType"`
	Location GeoPoint  `json:"location"`
	At       time.Time `json:"at"`
}
