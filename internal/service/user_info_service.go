package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dom/ridecore/internal/domain"
	"github.com/dom/ridecore/internal/repository"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const birthDateLayout = "2006-01-02"

type UserInfoService struct {
	repos *repository.Repositories
}

func NewUserInfoService(repos *repository.Repositories) *UserInfoService {
	return &UserInfoService{repos: repos}
}

// UserInfoInput carries a partial update. Nil fields keep their stored
// value.
type UserInfoInput struct {
	Gender           *string
	BirthDate        *string
	Picture          *string
	ResidenceAddress *string
	Occupation       *string
	Designation      *string
	NID              *string
	ReferralID       *string
	TIN              *string
	ApproveTerms     *bool
	ApprovePrivacy   *bool
	Status           *bool
	AdditionInfo     json.RawMessage
}

func (s *UserInfoService) Get(ctx context.Context, userID uuid.UUID) (*domain.UserInfo, error) {
	return s.repos.UserInfo.GetByUserID(ctx, userID)
}

// Upsert creates or updates the caller's info. created reports whether a
// new live row was produced.
func (s *UserInfoService) Upsert(ctx context.Context, userID uuid.UUID, input UserInfoInput) (*domain.UserInfo, bool, error) {
	info, err := s.repos.UserInfo.GetByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrUserInfoNotFound) {
			return nil, false, err
		}
		info = &domain.UserInfo{UserID: userID}
	}
	if err := input.applyTo(info); err != nil {
		return nil, false, err
	}

	created, err := s.repos.UserInfo.Upsert(ctx, info)
	if err != nil {
		return nil, false, err
	}
	return info, created, nil
}

// Update requires an existing live row.
func (s *UserInfoService) Update(ctx context.Context, userID uuid.UUID, input UserInfoInput) (*domain.UserInfo, error) {
	info, err := s.repos.UserInfo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := input.applyTo(info); err != nil {
		return nil, err
	}
	if _, err := s.repos.UserInfo.Upsert(ctx, info); err != nil {
		return nil, err
	}
	return info, nil
}

func (s *UserInfoService) Delete(ctx context.Context, userID uuid.UUID) error {
	return s.repos.UserInfo.SoftDelete(ctx, userID)
}

// List returns every live info with a summary of its owner.
func (s *UserInfoService) List(ctx context.Context) ([]*domain.UserInfo, error) {
	infos, err := s.repos.UserInfo.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(infos))
	for _, info := range infos {
		ids = append(ids, info.UserID)
	}
	users, err := s.repos.User.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		info.User = domain.SummarizeUser(users[info.UserID])
	}
	return infos, nil
}

func (in UserInfoInput) applyTo(info *domain.UserInfo) error {
	if in.BirthDate != nil {
		if *in.BirthDate == "" {
			info.BirthDate = nil
		} else {
			t, err := time.Parse(birthDateLayout, *in.BirthDate)
			if err != nil {
				return domain.ErrInvalidBirthDate
			}
			info.BirthDate = &t
		}
	}
	setString(&info.Gender, in.Gender)
	setString(&info.Picture, in.Picture)
	setString(&info.ResidenceAddress, in.ResidenceAddress)
	setString(&info.Occupation, in.Occupation)
	setString(&info.Designation, in.Designation)
	setString(&info.NID, in.NID)
	setString(&info.ReferralID, in.ReferralID)
	setString(&info.TIN, in.TIN)
	setBool(&info.ApproveTerms, in.ApproveTerms)
	setBool(&info.ApprovePrivacy, in.ApprovePrivacy)
	setBool(&info.Status, in.Status)
	if len(in.AdditionInfo) > 0 {
		info.AdditionInfo = datatypes.JSON(in.AdditionInfo)
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
