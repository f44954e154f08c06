package authcore

import (
	"context"

	"github.com/statroom/authcore/token"
)

// UserView is the signable user projection embedded in tokens and
// returned to clients. See token.UserView for the wire shape.
type UserView = token.UserView

// UserRecord is the full account record held by the credential store.
// Email is the immutable unique identifier. PasswordHash is empty for
// OAuth-only accounts.
type UserRecord struct {
	Email            string
	FirstName        string
	LastName         string
	Picture          string
	PasswordHash     string
	TwoFactorEnabled bool
	Verified         bool
	IsAdmin          bool
}

// CreateUserInput is the input for UserStore.Create.
type CreateUserInput struct {
	Email            string
	FirstName        string
	LastName         string
	Picture          string
	PasswordHash     string
	TwoFactorEnabled bool
	Verified         bool
	IsAdmin          bool
}

// UserStore is the credential-store boundary. The backing store (a
// graph database in production) lives outside this subsystem; callers
// provide an implementation through the Builder.
//
// FindByEmail returns ErrUserNotFound when no account exists. Create
// must fail with ErrConflict when the email is already taken, so that
// concurrent first logins resolve by re-fetching rather than by
// corrupting existing credentials.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*UserRecord, error)
	Create(ctx context.Context, input CreateUserInput) (*UserRecord, error)
	SetPassword(ctx context.Context, email, passwordHash string) error
}

// PendingRegistration is the candidate profile parked in the ephemeral
// store between registration submission and OTP verification. The
// password stays plaintext here and is hashed only at promotion time;
// the record self-expires if never verified.
type PendingRegistration struct {
	Email     string `json:"email"`
	FirstName string `json:"fname"`
	LastName  string `json:"lname"`
	Password  string `json:"password"`
	OTP       string `json:"otp"`
}

// RegisterInput is the input for Engine.Register.
type RegisterInput struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
}

// LoginResult is returned by every flow that can end in an issued
// session. When TwoFactorRequired is set, no tokens were minted and the
// other fields are empty; the client must complete the OTP login flow.
type LoginResult struct {
	// XSRFToken is the signed anti-forgery token. The client stores it
	// and replays it in the X-Xsrf-Token header on every protected call.
	XSRFToken string
	User      *UserView
	// TwoFactorRequired reports that credentials were correct but the
	// account requires an emailed OTP before a session is issued.
	TwoFactorRequired bool
}

func viewOf(rec *UserRecord) *UserView {
	return &UserView{
		FirstName:        rec.FirstName,
		LastName:         rec.LastName,
		Email:            rec.Email,
		Picture:          rec.Picture,
		TwoFactorEnabled: rec.TwoFactorEnabled,
		IsAdmin:          rec.IsAdmin,
	}
}
