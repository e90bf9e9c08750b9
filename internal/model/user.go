package model

import (
	"time"
)

type UserRole string

const (
	Manager UserRole = "manager"
	Mentor  UserRole = "mentor"
	Buddy   UserRole = "buddy"
)

// DomainRole 学员所属的技术方向
type DomainRole string

const (
	DomainFrontend DomainRole = "frontend"
	DomainBackend  DomainRole = "backend"
	DomainMobile   DomainRole = "mobile"
	DomainQA       DomainRole = "qa"
	DomainDevOps   DomainRole = "devops"
	DomainData     DomainRole = "data"
)

// swagger:model User
type User struct {
	BaseModel
	Name             string     `gorm:"size:100;not null" json:"name"`
	Email            string     `gorm:"size:100;unique;not null" json:"email"`
	Password         string     `gorm:"size:100;not null" json:"-"`
	Role             UserRole   `gorm:"size:20;default:'buddy'" json:"role"`
	DomainRole       DomainRole `gorm:"size:20;index" json:"domainRole"`
	AssignedMentorID uint       `gorm:"index;default:0" json:"assignedMentorId"` // 学员的带教导师
	Disabled         bool       `gorm:"default:false" json:"disabled"`
	LastLogin        time.Time  `json:"lastLogin"` // 注册和登录时在代码里写入
	LastSeen         time.Time  `json:"lastSeen"`
}

func (User) TableName() string {
	return "users"
}
