package service

import (
	"context"
	"encoding/json"

	"github.com/dom/ridecore/internal/domain"
	"github.com/dom/ridecore/internal/repository"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type UserAddressService struct {
	repos *repository.Repositories
}

func NewUserAddressService(repos *repository.Repositories) *UserAddressService {
	return &UserAddressService{repos: repos}
}

type UserAddressInput struct {
	AddressType  string
	Street       string
	City         string
	State        string
	Zip          string
	Country      string
	Status       *bool
	AdditionInfo json.RawMessage
}

func (s *UserAddressService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.UserAddress, error) {
	return s.repos.UserAddress.GetByUserID(ctx, userID)
}

// Upsert writes the caller's address of the given type, HOME by default.
func (s *UserAddressService) Upsert(ctx context.Context, userID uuid.UUID, input UserAddressInput) (*domain.UserAddress, bool, error) {
	address, err := input.toAddress(userID)
	if err != nil {
		return nil, false, err
	}
	created, err := s.repos.UserAddress.Upsert(ctx, address)
	if err != nil {
		return nil, false, err
	}
	return address, created, nil
}

// Update replaces an existing address of the given type and fails with
// ErrAddressNotFound when the caller has none.
func (s *UserAddressService) Update(ctx context.Context, userID uuid.UUID, input UserAddressInput) (*domain.UserAddress, error) {
	address, err := input.toAddress(userID)
	if err != nil {
		return nil, err
	}
	existing, err := s.repos.UserAddress.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	found := false
	for _, a := range existing {
		if a.AddressType == address.AddressType {
			found = true
			break
		}
	}
	if !found {
		return nil, domain.ErrAddressNotFound
	}
	if _, err := s.repos.UserAddress.Upsert(ctx, address); err != nil {
		return nil, err
	}
	return address, nil
}

func (in UserAddressInput) toAddress(userID uuid.UUID) (*domain.UserAddress, error) {
	addressType, err := domain.ParseAddressType(in.AddressType)
	if err != nil {
		return nil, err
	}
	address := &domain.UserAddress{
		UserID:      userID,
		AddressType: addressType,
		Street:      in.Street,
		City:        in.City,
		State:       in.State,
		Zip:         in.Zip,
		Country:     in.Country,
		Status:      true,
	}
	if in.Status != nil {
		address.Status = *in.Status
	}
	if len(in.AdditionInfo) > 0 {
		address.AdditionInfo = datatypes.JSON(in.AdditionInfo)
	}
	return address, nil
}

func (s *UserAddressService) Delete(ctx context.Context, userID uuid.UUID, rawType string) error {
	addressType, err := domain.ParseAddressType(rawType)
	if err != nil {
		return err
	}
	return s.repos.UserAddress.Delete(ctx, userID, addressType)
}

func (s *UserAddressService) List(ctx context.Context) ([]*domain.UserAddress, error) {
	addresses, err := s.repos.UserAddress.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(addresses))
	for _, a := range addresses {
		ids = append(ids, a.UserID)
	}
	users, err := s.repos.User.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, a := range addresses {
		a.User = domain.SummarizeUser(users[a.UserID])
	}
	return addresses, nil
}
