package domain

import "time"

type UserRole string

const (
	RoleAdvertiser UserRole = "advertiser"
	RoleModerator  UserRole = "moderator"
	RoleAdmin      UserRole = "admin"
)

type User struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null;size:255"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Name         string    `json:"name" gorm:"size:255"`
	CompanyName  string    `json:"company_name,omitempty" gorm:"size:255"`
	Phone        string    `json:"phone,omitempty" gorm:"size:32"`
	Role         UserRole  `json:"role" gorm:"type:varchar(20);not null;default:advertiser"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) IsStaff() bool {
	return u.Role.IsStaff()
}

func (r UserRole) IsStaff() bool {
	return r == RoleAdmin || r == RoleModerator
}

// Requester identifies the authenticated caller of a service operation.
// It is always passed explicitly; services never read it from request context.
type Requester struct {
	UserID int64
	Role   UserRole
}

func (r Requester) IsStaff() bool {
	return r.Role.IsStaff()
}

// CanAccess reports whether the requester owns the resource or is staff.
func (r Requester) CanAccess(ownerID int64) bool {
	return r.IsStaff() || (r.UserID != 0 && r.UserID == ownerID)
}
