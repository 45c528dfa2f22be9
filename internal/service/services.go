package service

import (
	"github.com/dom/ridecore/internal/config"
	"github.com/dom/ridecore/internal/logger"
	"github.com/dom/ridecore/internal/notify"
	"github.com/dom/ridecore/internal/repository"
)

type Services struct {
	Auth     *AuthService
	User     *UserService
	Profile  *ProfileService
	UserInfo *UserInfoService
	Address  *UserAddressService
	Location *LocationService
	Category *CategoryService
}

func NewServices(repos *repository.Repositories, cfg *config.Config, sender notify.Sender, publisher LocationPublisher, logg *logger.Logger) *Services {
	auth := NewAuthService(repos, cfg)
	return &Services{
		Auth:     auth,
		User:     NewUserService(repos, auth, sender, cfg, logg),
		Profile:  NewProfileService(repos),
		UserInfo: NewUserInfoService(repos),
		Address:  NewUserAddressService(repos),
		Location: NewLocationService(repos, cfg.Proximity, publisher),
		Category: NewCategoryService(repos.Category),
	}
}
