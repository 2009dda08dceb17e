package model

import "time"

// User is the minimal user record this core needs.  Identity management
// (registration, passwords, roles) lives in an external service; here a
// user is only ever resolved by ID before a booking is created.
//
// Fields:
//  ID        – primary key identifier of the user.
//  Email     – unique email address.
//  FullName  – display name used on tickets.
//  IsActive  – whether the account is active.
//  CreatedAt – timestamp of creation.
type User struct {
	ID        uint64    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
