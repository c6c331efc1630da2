/*
Package authsdk provides a client SDK for the core API authentication service.

# SDKClient vs Session

The package is organized around two main types:

  - SDKClient: one method per endpoint, tokens passed explicitly
  - Session: holds a token pair and refreshes the access token when it expires

Create an SDKClient to interact with public endpoints and to log in:

	client := authsdk.NewSDKClient("https://api.example.com")

	// Check service health
	health, err := client.GetLiveness(ctx)

	// Score a candidate password
	strength, err := client.PasswordStrength(ctx, "correct-Horse-battery-9")

	// Authenticate to create a session
	session, err := client.AuthenticateWithPassword(ctx, "admin", password, false)

Use a Session for authenticated operations:

	profile, err := session.Me(ctx)
	err = session.ChangePassword(ctx, authsdk.ChangePasswordRequest{...})
	err = session.Logout(ctx)

# Refresh Tokens

Refresh tokens are single use. Every refresh returns a new pair and the old
refresh token stops working, so a Session must not be copied between
processes. Changing the password ends every session of the user.

# Error Handling

Every non-2xx response is returned as an *APIError. The predefined errors
match by code under errors.Is:

	_, err := client.Login(ctx, req)
	switch {
	case errors.Is(err, authsdk.ErrAccountLocked):
		// too many failed attempts
	case errors.Is(err, authsdk.ErrPasswordNotSet):
		// use SetFirstPassword
	}

Validation failures carry the individual reasons in APIError.Messages.
*/
package authsdk
