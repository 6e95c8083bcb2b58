package mapper

import (
	"docuchat-be/internal/entity"
	"docuchat-be/internal/model"
)

type UserMapper struct{}

func NewUserMapper() *UserMapper {
	return &UserMapper{}
}

func (m *UserMapper) ToEntity(u *model.User) *entity.User {
	if u == nil {
		return nil
	}

	return &entity.User{
		Id:             u.Id,
		Email:          u.Email,
		FullName:       u.FullName,
		PasswordHash:   u.PasswordHash,
		Role:           u.Role,
		Status:         u.Status,
		EmailVerified:  u.EmailVerified,
		ProfileContext: u.ProfileContext,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func (m *UserMapper) ToModel(u *entity.User) *model.User {
	if u == nil {
		return nil
	}

	return &model.User{
		Id:             u.Id,
		Email:          u.Email,
		FullName:       u.FullName,
		PasswordHash:   u.PasswordHash,
		Role:           u.Role,
		Status:         u.Status,
		EmailVerified:  u.EmailVerified,
		ProfileContext: u.ProfileContext,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func (m *UserMapper) TokenToEntity(t *model.EmailVerificationToken) *entity.EmailVerificationToken {
	if t == nil {
		return nil
	}

	return &entity.EmailVerificationToken{
		Id:        t.Id,
		UserId:    t.UserId,
		Token:     t.Token,
		ExpiresAt: t.ExpiresAt,
		CreatedAt: t.CreatedAt,
	}
}

func (m *UserMapper) TokenToModel(t *entity.EmailVerificationToken) *model.EmailVerificationToken {
	if t == nil {
		return nil
	}

	return &model.EmailVerificationToken{
		Id:        t.Id,
		UserId:    t.UserId,
		Token:     t.Token,
		ExpiresAt: t.ExpiresAt,
		CreatedAt: t.CreatedAt,
	}
}
