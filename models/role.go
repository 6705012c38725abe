package models

type UserRole string

// RoleOrganizer may run draws and build brackets. Everybody else only reads.
const RoleOrganizer UserRole = "organizer"

type Credentials struct {
	Password string `json:"password"`
}
