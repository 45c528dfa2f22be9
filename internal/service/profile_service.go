package service

import (
	"context"
	"errors"

	"github.com/dom/ridecore/internal/domain"
	"github.com/dom/ridecore/internal/repository"
	"github.com/google/uuid"
)

type ProfileService struct {
	repos *repository.Repositories
}

func NewProfileService(repos *repository.Repositories) *ProfileService {
	return &ProfileService{repos: repos}
}

// Profile is the user with every auxiliary record attached. Info and
// Location are nil when the user has none.
type Profile struct {
	User      *domain.User          `json:"user"`
	Info      *domain.UserInfo      `json:"userInfo"`
	Addresses []*domain.UserAddress `json:"userAddresses"`
	Location  *domain.UserLocation  `json:"userLocation"`
}

func (s *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	user, err := s.repos.User.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile := &Profile{User: user, Addresses: []*domain.UserAddress{}}

	info, err := s.repos.UserInfo.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		profile.Info = info
	case !errors.Is(err, domain.ErrUserInfoNotFound):
		return nil, err
	}

	addresses, err := s.repos.UserAddress.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(addresses) > 0 {
		profile.Addresses = addresses
	}

	location, err := s.repos.UserLocation.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		profile.Location = location
	case !errors.Is(err, domain.ErrLocationNotFound):
		return nil, err
	}
	return profile, nil
}
