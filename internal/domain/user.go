package domain

import (
	"errors"
	"time"
)

type Role string

const (
	CUSTOMER Role = "CUSTOMER"
	WORKER   Role = "WORKER"
)

var ErrUnknownRole = errors.New("unknown role")

// ParseRole accepts only the exact role names; anything else is ErrUnknownRole.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case CUSTOMER:
		return CUSTOMER, nil
	case WORKER:
		return WORKER, nil
	default:
		return "", ErrUnknownRole
	}
}

func (r Role) IsValid() bool {
	return r == CUSTOMER || r == WORKER
}

type User struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	Name      string
	Email     string `gorm:"uniqueIndex;not null"`
	Password  string `gorm:"not null"`
	Role      Role   `gorm:"type:varchar(16);not null"`
	Skill     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) IsWorker() bool {
	return u.Role == WORKER
}
