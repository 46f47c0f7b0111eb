package errors

import "fmt"

var (
	ErrUnauthenticated    = fmt.Errorf("action requires a registered session")
	ErrAlreadyRegistered  = fmt.Errorf("session is already bound to a username")
	ErrSessionClosed      = fmt.Errorf("session is terminated")
	ErrSessionBusy        = fmt.Errorf("session delivery buffer is full")
	ErrUsernameTaken      = fmt.Errorf("username already taken")
	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrGroupNameTaken     = fmt.Errorf("group name already taken")
	ErrGroupNotFound      = fmt.Errorf("group not found")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity requirements")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
)
