package auth

import "fmt"

// User-facing flash texts.
const (
	MsgPasswordMismatch   = "Passwords do not match."
	MsgUsernameTaken      = "Username already exists."
	MsgEmailTaken         = "Email already exists."
	MsgSignupSuccess      = "Account created successfully! Please login."
	MsgInvalidCredentials = "Invalid username or password."
	MsgLoggedOut          = "Logged out successfully."
	MsgAdminOnly          = "You do not have permission to access that page."
	MsgTooManyAttempts    = "Too many attempts. Please wait a moment and try again."
)

// WelcomeMessage greets a user after login.
func WelcomeMessage(username string) string {
	return fmt.Sprintf("Welcome, %s!", username)
}
