package model

import "errors"

// Common errors used across the application
var (
	// User errors
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")

	// Presence errors
	ErrAlreadyOnline = errors.New("user is already online")

	// Room errors
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomExists   = errors.New("room already exists")

	// Frame errors
	ErrInvalidDirection = errors.New("invalid direction")
)
