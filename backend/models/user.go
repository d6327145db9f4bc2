package models

import "errors"

type Role string

const (
	RoleStudent  Role = "student"
	RoleEducator Role = "educator"
)

var ErrRoleDowngrade = errors.New("educators cannot return to the student role")

type User struct {
	Base
	Name         string `gorm:"not null" json:"name"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Role         Role   `gorm:"type:varchar(20);not null;default:student" json:"role"`

	Purchases      []Purchase       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Enrollments    []UserCourse     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Progress       []CourseProgress `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Ratings        []CourseRating   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedCourses []Course         `gorm:"foreignKey:EducatorID;constraint:OnDelete:CASCADE" json:"-"`
}

func (u *User) IsEducator() bool {
	return u.Role == RoleEducator
}

// ChangeRole applies a role change. The only real transition is
// student -> educator; asking for the current role is a no-op.
func (u *User) ChangeRole(target Role) (bool, error) {
	if target != RoleStudent && target != RoleEducator {
		return false, errors.New("unknown role " + string(target))
	}
	if u.Role == target {
		return false, nil
	}
	if u.Role == RoleEducator {
		return false, ErrRoleDowngrade
	}
	u.Role = target
	return true, nil
}
