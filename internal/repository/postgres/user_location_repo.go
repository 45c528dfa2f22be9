package postgres

import (
	"context"
	"time"

	"github.com/dom/ridecore/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// The geography column has no gorm mapping. Every statement here is raw
// PostGIS SQL and rows are scanned into locationRow.
type locationRow struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Longitude float64
	Latitude  float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r locationRow) toDomain() *domain.UserLocation {
	return &domain.UserLocation{
		ID:        r.ID,
		UserID:    r.UserID,
		Location:  domain.GeoPoint{Longitude: r.Longitude, Latitude: r.Latitude},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

const locationColumns = `id, user_id,
	ST_X(location::geometry) AS longitude,
	ST_Y(location::geometry) AS latitude,
	created_at, updated_at`

const upsertLocationSQL = `
INSERT INTO user_locations (user_id, location, created_at, updated_at)
VALUES (?, ST_SetSRID(ST_MakePoint(?, ?), 4326)::geography, now(), now())
ON CONFLICT (user_id) DO UPDATE
SET location = EXCLUDED.location, updated_at = now()
RETURNING ` + locationColumns

const nearbySQL = `
SELECT ul.id, ul.user_id,
	ST_X(ul.location::geometry) AS longitude,
	ST_Y(ul.location::geometry) AS latitude,
	u.full_name, u.phone_number, u.user_type,
	ST_Distance(ul.location, ST_SetSRID(ST_MakePoint(@lng, @lat), 4326)::geography) AS distance
FROM user_locations ul
JOIN users u ON u.id = ul.user_id
WHERE ST_DWithin(ul.location, ST_SetSRID(ST_MakePoint(@lng, @lat), 4326)::geography, @radius)
	AND u.deleted_at IS NULL`

const driversOnlyFilter = `
	AND u.user_type = 'DRIVER'
	AND u.status AND u.is_verified AND u.service_status`

type userLocationRepository struct {
	db *gorm.DB
}

func NewUserLocationRepository(db *gorm.DB) *userLocationRepository {
	return &userLocationRepository{db: db}
}

// Upsert keeps exactly one row per user.
func (r *userLocationRepository) Upsert(ctx context.Context, userID uuid.UUID, point domain.GeoPoint) (*domain.UserLocation, error) {
	var row locationRow
	err := r.db.WithContext(ctx).
		Raw(upsertLocationSQL, userID, point.Longitude, point.Latitude).
		Scan(&row).Error
	if err != nil {
		return nil, translateError(err)
	}
	return row.toDomain(), nil
}

func (r *userLocationRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.UserLocation, error) {
	var rows []locationRow
	err := r.db.WithContext(ctx).
		Raw(`SELECT `+locationColumns+` FROM user_locations WHERE user_id = ?`, userID).
		Scan(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrLocationNotFound
	}
	return rows[0].toDomain(), nil
}

func (r *userLocationRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	res := r.db.WithContext(ctx).Exec(`DELETE FROM user_locations WHERE user_id = ?`, userID)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrLocationNotFound
	}
	return nil
}

func (r *userLocationRepository) List(ctx context.Context) ([]*domain.UserLocation, error) {
	var rows []locationRow
	err := r.db.WithContext(ctx).
		Raw(`SELECT ` + locationColumns + ` FROM user_locations ORDER BY updated_at DESC`).
		Scan(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}
	locations := make([]*domain.UserLocation, 0, len(rows))
	for _, row := range rows {
		locations = append(locations, row.toDomain())
	}
	return locations, nil
}

// FindNearby returns users within query.Radius meters of query.Center,
// nearest first. Distances are geodesic and the boundary is inclusive.
func (r *userLocationRepository) FindNearby(ctx context.Context, query domain.NearbyQuery) ([]*domain.NearbyUser, error) {
	sql := nearbySQL
	if query.DriversOnly {
		sql += driversOnlyFilter
	}
	sql += `
ORDER BY distance ASC, ul.user_id ASC
LIMIT @limit`

	var rows []struct {
		ID          uuid.UUID
		UserID      uuid.UUID
		Longitude   float64
		Latitude    float64
		FullName    string
		PhoneNumber string
		UserType    domain.UserType
		Distance    float64
	}
	err := r.db.WithContext(ctx).Raw(sql, map[string]any{
		"lng":    query.Center.Longitude,
		"lat":    query.Center.Latitude,
		"radius": query.Radius,
		"limit":  query.Limit,
	}).Scan(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}

	users := make([]*domain.NearbyUser, 0, len(rows))
	for _, row := range rows {
		users = append(users, &domain.NearbyUser{
			ID:          row.ID,
			UserID:      row.UserID,
			Location:    domain.GeoPoint{Longitude: row.Longitude, Latitude: row.Latitude},
			FullName:    row.FullName,
			PhoneNumber: row.PhoneNumber,
			UserType:    row.UserType,
			Distance:    row.Distance,
		})
	}
	return users, nil
}

func (r *userLocationRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(`SELECT count(*) FROM user_locations WHERE user_id = ?`, userID).Scan(&count).Error
	return count, translateError(err)
}
