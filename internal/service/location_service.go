package service

import (
	"context"
	"time"

	"github.com/dom/ridecore/internal/config"
	"github.com/dom/ridecore/internal/domain"
	"github.com/dom/ridecore/internal/repository"
	"github.com/google/uuid"
)

// LocationPublisher receives every stored location for live fan-out.
// Publishing must not block.
type LocationPublisher interface {
	PublishLocation(event domain.LocationEvent)
}

type LocationService struct {
	repos     *repository.Repositories
	cfg       config.ProximityConfig
	publisher LocationPublisher
	now       func() time.Time
}

func NewLocationService(repos *repository.Repositories, cfg config.ProximityConfig, publisher LocationPublisher) *LocationService {
	return &LocationService{
		repos:     repos,
		cfg:       cfg,
		publisher: publisher,
		now:       time.Now,
	}
}

// UpdateLocation upserts the user's single location row and publishes it.
func (s *LocationService) UpdateLocation(ctx context.Context, user *domain.User, point domain.GeoPoint) (*domain.UserLocation, error) {
	if err := point.Validate(); err != nil {
		return nil, err
	}
	location, err := s.repos.UserLocation.Upsert(ctx, user.ID, point)
	if err != nil {
		return nil, err
	}
	if s.publisher != nil {
		s.publisher.PublishLocation(domain.LocationEvent{
			UserID:   user.ID,
			UserType: user.UserType,
			Location: location.Location,
			At:       s.now(),
		})
	}
	return location, nil
}

// MoveLocation updates a location the user already has. A user without
// one gets ErrLocationNotFound.
func (s *LocationService) MoveLocation(ctx context.Context, user *domain.User, point domain.GeoPoint) (*domain.UserLocation, error) {
	if err := point.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.repos.UserLocation.GetByUserID(ctx, user.ID); err != nil {
		return nil, err
	}
	return s.UpdateLocation(ctx, user, point)
}

func (s *LocationService) Get(ctx context.Context, userID uuid.UUID) (*domain.UserLocation, error) {
	return s.repos.UserLocation.GetByUserID(ctx, userID)
}

func (s *LocationService) Delete(ctx context.Context, userID uuid.UUID) error {
	return s.repos.UserLocation.Delete(ctx, userID)
}

func (s *LocationService) List(ctx context.Context) ([]*domain.UserLocation, error) {
	return s.repos.UserLocation.List(ctx)
}

// FindNearby validates and caps the query before it reaches the database.
func (s *LocationService) FindNearby(ctx context.Context, center domain.GeoPoint, radius float64, driversOnly bool) ([]*domain.NearbyUser, error) {
	query := domain.NearbyQuery{
		Center:      center,
		Radius:      radius,
		DriversOnly: driversOnly,
		Limit:       s.cfg.MaxResults,
	}
	if err := query.Validate(s.cfg.MaxRadiusMeters); err != nil {
		return nil, err
	}
	return s.repos.UserLocation.FindNearby(ctx, query)
}
