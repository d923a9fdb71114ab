package models

// User is a warehouse operator. Every user is assigned to exactly one
// warehouse; the traceability flows rely on that mapping to resolve the
// submitter's source or target warehouse.
type User struct {
	ID           int    `json:"id" db:"id"`
	Username     string `json:"username" db:"username"`
	Fullname     string `json:"fullname" db:"fullname"`
	PasswordHash string `json:"-" db:"password_hash"`
	Role         string `json:"role" db:"role"`
	Warehouse    string `json:"warehouse" db:"warehouse_id"`
}

type CreateUserRequest struct {
	Username  string `json:"username" binding:"required"`
	Password  string `json:"password" binding:"required"`
	Fullname  string `json:"fullname"`
	Role      string `json:"role"`
	Warehouse string `json:"warehouse" binding:"required"`
}
