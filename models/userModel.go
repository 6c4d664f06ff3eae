package models

type User struct {
	Base
	Fullname string `json:"fullname"`
	Username string `json:"username" gorm:"type:varchar(64);uniqueIndex"`
	Email    string `json:"email" gorm:"type:varchar(191);uniqueIndex"`
	Phone    string `json:"phone"`
	Password string `json:"password,omitempty"`
	Role     string `json:"role"`
}

type LoginData struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)
