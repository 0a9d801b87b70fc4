package totalconnect

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type SessionState uint8

const (
	StateLoggedOut SessionState = iota
	StateAuthenticating
	StateLoggedIn
	StateExpired
	// StateCredentialsInvalid is terminal until the credentials change.
	StateCredentialsInvalid
)

func (s SessionState) String() string {
	switch s {
	case StateLoggedOut:
		return "logged-out"
	case StateAuthenticating:
		return "authenticating"
	case StateLoggedIn:
		return "logged-in"
	case StateExpired:
		return "expired"
	case StateCredentialsInvalid:
		return "credentials-invalid"
	default:
		return "unknown"
	}
}

type session struct {
	token    string
	acquired time.Time
	expiry   time.Duration
	state    SessionState
}

func (s *session) start(token string, now time.Time) {
	s.token = token
	s.acquired = now
	s.state = StateLoggedIn
}

func (s *session) touch(now time.Time) {
	s.acquired = now
	s.state = StateLoggedIn
}

func (s *session) expired(now time.Time) bool {
	return s.expiry > 0 && now.Sub(s.acquired) >= s.expiry
}

func (s *session) clear() {
	s.token = ""
	s.acquired = time.Time{}
	s.state = StateLoggedOut
}

func (s *session) invalidate() {
	s.token = ""
	s.acquired = time.Time{}
	s.state = StateCredentialsInvalid
}

// IsLoggedIn reports whether a session token is held. An expired token still
// counts: it is renewed on the next call.
func (c *Client) IsLoggedIn() bool {
	return c.session.token != ""
}

func (c *Client) State() SessionState {
	if c.session.state == StateLoggedIn && c.session.expired(c.clock.Now()) {
		return StateExpired
	}
	return c.session.state
}

func (c *Client) loginArgs() Args {
	return Args{
		"userName":           {c.credentials.Username},
		"password":           {c.credentials.Password},
		"ApplicationID":      {c.appID},
		"ApplicationVersion": {c.appVersion},
	}
}

// authenticate logs in. The full session details are only fetched while no
// locations are known; afterwards the cheaper login call is enough.
func (c *Client) authenticate(ctx context.Context) error {
	if c.session.state == StateCredentialsInvalid {
		return fmt.Errorf("%w: credentials were rejected before, not retrying", ErrAuthentication)
	}

	c.session.state = StateAuthenticating

	if len(c.locations) > 0 {
		var reply Authentication
		if err := c.call(ctx, OpAuthenticateUserLogin, c.loginArgs(), &reply); err != nil {
			return c.authenticationFailed(err)
		}
		c.session.start(reply.SessionID, c.clock.Now())
		c.log.Info("re-authenticated", "user", c.credentials.Username)
		return nil
	}

	var reply SessionDetails
	if err := c.call(ctx, OpGetSessionDetails, c.loginArgs(), &reply); err != nil {
		return c.authenticationFailed(err)
	}
	c.session.start(reply.SessionID, c.clock.Now())
	c.loadSession(&reply)
	c.log.Info("authenticated", "user", c.credentials.Username)
	return nil
}

func (c *Client) authenticationFailed(err error) error {
	if errors.Is(err, ErrAuthentication) {
		c.session.invalidate()
		c.log.Error("credentials rejected", "user", c.credentials.Username, "err", err)
		return fmt.Errorf("could not authenticate: %w", err)
	}
	c.session.state = StateLoggedOut
	if c.session.token != "" {
		c.session.state = StateExpired
	}
	return fmt.Errorf("could not authenticate: %w", err)
}

// refresh tries to keep the current session alive and falls back to a full
// login when the service refuses.
func (c *Client) refresh(ctx context.Context) error {
	if c.session.token != "" {
		var reply Result
		err := c.attempt(ctx, OpKeepAlive, nil, &reply)
		if err == nil {
			c.session.touch(c.clock.Now())
			c.log.Debug("session kept alive")
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, ErrAuthentication) {
			return c.authenticationFailed(err)
		}
		c.log.Warn("could not keep session alive, logging in again", "err", err)
	}
	c.session.token = ""
	return c.authenticate(ctx)
}

// ensureValid runs before every non authentication call.
func (c *Client) ensureValid(ctx context.Context) error {
	if c.session.token == "" {
		return c.authenticate(ctx)
	}
	if !c.session.expired(c.clock.Now()) {
		return nil
	}
	c.session.state = StateExpired
	return c.refresh(ctx)
}

// LogOut ends the session. A rejected logout is returned and the token is
// kept.
func (c *Client) LogOut(ctx context.Context) error {
	if c.session.token == "" {
		return nil
	}
	var reply Result
	if err := c.attempt(ctx, OpLogout, nil, &reply); err != nil {
		return fmt.Errorf("could not log out: %w", err)
	}
	c.session.clear()
	c.log.Info("logged out", "user", c.credentials.Username)
	return nil
}
