package totalconnect

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	logp "github.com/charmbracelet/log"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const (
	DefaultMaxAttempts   = 10
	DefaultRetryDelay    = 3 * time.Second
	DefaultSessionExpiry = 10 * time.Minute

	defaultApplicationID      = "14588"
	defaultApplicationVersion = "1.0.34"
)

// Transport submits one operation to the service and decodes its reply into
// the supplied record. It returns an error only when no reply could be
// obtained; result codes are interpreted by the client.
type Transport interface {
	Send(ctx context.Context, op Operation, args Args, reply Response) error
}

// Clock supplies the current time. time.Now carries a monotonic reading, so
// expiry checks are not affected by wall clock changes.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Client is a Total Connect session plus the locations it can see.
//
// A Client is not safe for concurrent use. Callers issuing calls from more
// than one goroutine must serialize them.
type Client struct {
	transport   Transport
	credentials Credentials
	clock       Clock
	log         *logp.Logger
	retryDelay  time.Duration
	maxAttempts int
	appID       string
	appVersion  string

	session     session
	user        User
	moduleFlags map[string]string
	locations   map[int]*Location
}

type Option func(*Client)

func WithLogger(l *logp.Logger) Option {
	return func(c *Client) { c.log = l }
}

func WithClock(clock Clock) Option {
	return func(c *Client) { c.clock = clock }
}

// WithRetryDelay sets the fixed delay between attempts. Zero disables it.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

func WithSessionExpiry(d time.Duration) Option {
	return func(c *Client) { c.session.expiry = d }
}

func WithApplication(id, version string) Option {
	return func(c *Client) {
		c.appID = id
		c.appVersion = version
	}
}

// New logs in and loads partitions, zones and status of every location.
// The client is returned even when that fails, so its state can be
// inspected.
func New(ctx context.Context, transport Transport, credentials Credentials, opts ...Option) (*Client, error) {
	c := &Client{
		transport:   transport,
		credentials: credentials.clone(),
		clock:       systemClock{},
		log: logp.NewWithOptions(os.Stderr, logp.Options{
			ReportTimestamp: true,
			TimeFormat:      time.Kitchen,
			Prefix:          "totalconnect",
		}),
		retryDelay:  DefaultRetryDelay,
		maxAttempts: DefaultMaxAttempts,
		appID:       defaultApplicationID,
		appVersion:  defaultApplicationVersion,
		session:     session{expiry: DefaultSessionExpiry},
		locations:   map[int]*Location{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.credentials.validate(); err != nil {
		return c, fmt.Errorf("invalid credentials: %w", err)
	}
	return c, c.init(ctx)
}

func (c *Client) init(ctx context.Context) error {
	if err := c.authenticate(ctx); err != nil {
		return err
	}
	for _, id := range c.LocationIDs() {
		loc := c.locations[id]
		if err := loc.RefreshPartitions(ctx); err != nil {
			return fmt.Errorf("could not load location %d: %w", id, err)
		}
		if err := loc.RefreshZones(ctx); err != nil {
			return fmt.Errorf("could not load location %d: %w", id, err)
		}
		if err := loc.Refresh(ctx); err != nil {
			return fmt.Errorf("could not load location %d: %w", id, err)
		}
	}
	return nil
}

// SetCredentials replaces the credentials, clearing a previous rejection.
// The next call logs in again.
func (c *Client) SetCredentials(credentials Credentials) error {
	credentials = credentials.clone()
	if err := credentials.validate(); err != nil {
		return fmt.Errorf("invalid credentials: %w", err)
	}
	c.credentials = credentials
	c.session.clear()
	for _, loc := range c.locations {
		loc.usercode, _ = credentials.Usercode(loc.ID)
	}
	return nil
}

func (c *Client) User() User { return c.user }

func (c *Client) ModuleFlags() map[string]string { return maps.Clone(c.moduleFlags) }

func (c *Client) Location(id int) (*Location, bool) {
	loc, ok := c.locations[id]
	return loc, ok
}

// LocationIDs returns the ids of all locations in ascending order.
func (c *Client) LocationIDs() []int {
	ids := maps.Keys(c.locations)
	slices.Sort(ids)
	return ids
}

func (c *Client) Locations() []*Location {
	var locs []*Location
	for _, id := range c.LocationIDs() {
		locs = append(locs, c.locations[id])
	}
	return locs
}

// ValidateUsercode asks the panel of the location whether code is a valid
// usercode.
func (c *Client) ValidateUsercode(ctx context.Context, locationID int, code string) (bool, error) {
	if !isUsercode(code) {
		return false, nil
	}
	var reply Result
	err := c.Call(ctx, OpValidateUserCode, Args{
		"LocationID": {itoa(locationID)},
		"UserCode":   {code},
	}, &reply)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrUsercodeInvalid), errors.Is(err, ErrUsercodeUnavailable):
		c.log.Warn("usercode rejected", "location", locationID, "err", err)
		return false, nil
	default:
		return false, fmt.Errorf("could not validate usercode: %w", err)
	}
}

// loadSession stores what the first login returned. Locations are only ever
// built once; later logins keep the registry as is.
func (c *Client) loadSession(reply *SessionDetails) {
	c.moduleFlags = parseFlags(reply.ModuleFlags)
	if reply.UserInfo != nil {
		c.user = newUser(*reply.UserInfo)
	}
	if len(c.locations) > 0 {
		return
	}
	for _, info := range reply.Locations {
		c.locations[info.LocationID] = newLocation(c, info)
	}
	c.log.Info("session loaded", "user", c.user.Username, "locations", len(c.locations))
}
