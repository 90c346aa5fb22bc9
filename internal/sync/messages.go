package sync

// fallbackLoginMessage is shown when the server gave no usable message id.
const fallbackLoginMessage = "Login failed"

// serverMessages maps server error message ids to user-facing text.
// Unknown ids fall back to the server's own message, then to
// fallbackLoginMessage.
var serverMessages = map[string]string{
	"login_password_incorrect":  "Incorrect password",
	"login_email_not_found":     "Email not found",
	"login_account_locked":      "Account locked, try again later",
	"login_permission_denied":   "You don't have permission to do that",
	"register_email_taken":      "An account already exists for this email",
	"register_password_invalid": "Password is too short",
	"token_refresh_invalid":     "Session expired, please sign in again",
	"thanks_for_signing_up":     "Thanks for signing up",
}

func messageForID(messageID, serverMessage string) string {
	if msg, ok := serverMessages[messageID]; ok {
		return msg
	}
	if serverMessage != "" {
		return serverMessage
	}
	return fallbackLoginMessage
}
