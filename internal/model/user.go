package model

type UserRole string

const (
	Student UserRole = "student"
	Admin   UserRole = "admin"
)

// swagger:model
type User struct {
	UUIDBase
	Name     string   `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Email    string   `gorm:"size:150;uniqueIndex;not null" json:"email"`
	Password string   `gorm:"column:password_hash;type:text;not null" json:"-"`
	Role     UserRole `gorm:"size:20;default:student" json:"role"`
}
