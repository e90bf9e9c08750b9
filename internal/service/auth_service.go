package service

import (
	"errors"

	"mentorship_backend/internal/config"
	"mentorship_backend/internal/model"
	"mentorship_backend/internal/repository"
	"mentorship_backend/internal/util"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	UserRepo *repository.UserRepository
	Cfg      *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		UserRepo: userRepo,
		Cfg:      cfg,
	}
}

// Register 学员注册必须带技术方向，方向决定自动报名会匹配到哪门课程
func (s *AuthService) Register(user *model.User) error {
	if user.Role == "" {
		user.Role = model.Buddy
	}
	if user.Role == model.Buddy && user.DomainRole == "" {
		return util.ErrInvalidState
	}

	_, err := s.UserRepo.FindByEmail(user.Email)
	if err == nil {
		return util.ErrEmailRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.Password = string(hashedPassword)
	return s.UserRepo.Create(user)
}

func (s *AuthService) Login(email, password string) (string, *model.User, error) {
	user, err := s.UserRepo.FindByEmail(email)
	if err != nil {
		return "", nil, errors.New("invalid credentials")
	}
	if user.Disabled {
		return "", nil, util.ErrPermissionDenied
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, errors.New("invalid credentials")
	}

	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return "", nil, err
	}

	if err := s.UserRepo.UpdateLastLogin(user.ID); err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *AuthService) GetCurrentUser(c *gin.Context) *model.User {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		return nil
	}

	user, _ := s.UserRepo.FindByID(claims.UserID)
	return user
}

// AssignMentor 经理把学员挂到导师名下，决定提交进入谁的待审队列
func (s *AuthService) AssignMentor(buddyID, mentorID uint) (*model.User, error) {
	buddy, err := s.UserRepo.FindByID(buddyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	if buddy.Role != model.Buddy {
		return nil, util.ErrInvalidState
	}

	mentor, err := s.UserRepo.FindByID(mentorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	if mentor.Role != model.Mentor && mentor.Role != model.Manager {
		return nil, util.ErrInvalidState
	}

	buddy.AssignedMentorID = mentor.ID
	if err := s.UserRepo.Update(buddy); err != nil {
		return nil, err
	}
	return buddy, nil
}
