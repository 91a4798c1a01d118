package domain

import "time"

type UserRole string

const (
	RoleClient UserRole = "CLIENT"
	RoleAdmin  UserRole = "ADMIN"
)

type User struct {
	ID        string
	Email     string
	FullName  string
	Role      UserRole
	CreatedAt time.Time
}
