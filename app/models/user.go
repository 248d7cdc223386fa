package models

// Roles a user can hold.
const (
	RoleFarmer   = "farmer"
	RoleConsumer = "consumer"
	RoleStaff    = "staff"
)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleFarmer, RoleConsumer, RoleStaff:
		return true
	}
	return false
}

// User is a marketplace account. Farmers own produce, consumers place orders,
// staff may be assigned to orders.
type User struct {
	ID           uint   `gorm:"column:user_id;primaryKey;autoIncrement" json:"user_id"`
	Username     string `gorm:"size:50;uniqueIndex;not null"             json:"username"`
	PasswordHash string `gorm:"column:password_hash;size:255;not null"   json:"-"` // bcrypt, never serialised
	Role         string `gorm:"size:20;not null;default:consumer"        json:"role"`
	Email        string `gorm:"size:100;uniqueIndex;not null"            json:"email"`
}

func (User) TableName() string { return "users" }
