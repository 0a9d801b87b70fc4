package totalconnect

import "strings"

type Device struct {
	ID           int
	Name         string
	ClassID      int
	SerialNumber string
	Flags        map[string]string
}

func newDevice(info DeviceInfo) *Device {
	return &Device{
		ID:           info.DeviceID,
		Name:         info.DeviceName,
		ClassID:      info.DeviceClassID,
		SerialNumber: info.DeviceSerialNumber,
		Flags:        parseFlags(info.DeviceFlags),
	}
}

type User struct {
	ID       int
	Username string
	Features map[string]string
}

func newUser(info UserInfo) User {
	return User{
		ID:       info.UserID,
		Username: info.Username,
		Features: parseFlags(info.UserFeatureList),
	}
}

// Master reports whether the account is the location master user.
func (u User) Master() bool {
	return u.Features["Master"] == "1"
}

// Admin reports whether the user may administer other users.
func (u User) Admin() bool {
	return u.Features["User Administration"] == "1"
}

// Credentials identify the account and hold the usercodes used to authorize
// arm, disarm and bypass on each location.
type Credentials struct {
	Username string
	Password string
	// Usercodes maps a location id to its usercode. The "default" key is
	// used for locations without an explicit entry.
	Usercodes map[string]string
}

const defaultUsercodeKey = "default"

// Usercode returns the usercode for the location, falling back to the
// default one.
func (c Credentials) Usercode(locationID int) (string, bool) {
	if code, ok := c.Usercodes[itoa(locationID)]; ok {
		return code, true
	}
	code, ok := c.Usercodes[defaultUsercodeKey]
	return code, ok
}

func (c Credentials) clone() Credentials {
	codes := make(map[string]string, len(c.Usercodes))
	for k, v := range c.Usercodes {
		codes[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	c.Usercodes = codes
	return c
}

func (c Credentials) validate() error {
	if c.Username == "" || c.Password == "" {
		return errMissingCredentials
	}
	for loc, code := range c.Usercodes {
		if !isUsercode(code) {
			return &usercodeError{location: loc}
		}
	}
	return nil
}

// isUsercode reports whether s is a usercode: one or more ASCII digits.
// Usercodes always travel as strings; leading zeros are significant.
func isUsercode(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
