package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/brutella/hap/characteristic"
	totalconnect "github.com/craigjmidwinter/total-connect-client"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Username      string            `env:"USERNAME,notEmpty"`
	Password      string            `env:"PASSWORD,notEmpty"`
	Usercodes     map[string]string `env:"USERCODES"`
	UsercodesFile string            `env:"USERCODES_FILE"`
	Location      int               `env:"LOCATION"`
	MotionZones   []int             `env:"MOTION"`
	ContactZones  []int             `env:"CONTACT"`
	BypassZones   []int             `env:"BYPASS"`
	ZoneNames     []string          `env:"ZONE_NAMES"`
	PollInterval  time.Duration     `env:"POLL_INTERVAL"  envDefault:"10s"`
	RetryDelay    time.Duration     `env:"RETRY_DELAY"    envDefault:"3s"`
	BaseURL       string            `env:"BASE_URL"`
	Address       string            `env:"LISTEN"         envDefault:":9009"`
	MQTTBroker    string            `env:"MQTT_BROKER"`
	MQTTTopic     string            `env:"MQTT_TOPIC"     envDefault:"totalconnect"`
	LogLevel      string            `env:"LOG_LEVEL"      envDefault:"info"`
}

// credentials merges the usercodes file with the USERCODES env, the latter
// taking precedence.
func (c Config) credentials() (totalconnect.Credentials, error) {
	codes := map[string]string{}
	if c.UsercodesFile != "" {
		bts, err := os.ReadFile(c.UsercodesFile)
		if err != nil {
			return totalconnect.Credentials{}, fmt.Errorf("could not read usercodes: %w", err)
		}
		if err := yaml.Unmarshal(bts, &codes); err != nil {
			return totalconnect.Credentials{}, fmt.Errorf("could not parse usercodes: %w", err)
		}
	}
	for k, v := range c.Usercodes {
		codes[k] = v
	}
	return totalconnect.Credentials{
		Username:  c.Username,
		Password:  c.Password,
		Usercodes: codes,
	}, nil
}

type zoneKind uint8

const (
	kindMotion = iota + 1
	kindContact
)

func (z zoneKind) String() string {
	switch z {
	case kindMotion:
		return "motion"
	default:
		return "contact"
	}
}

type zoneConfig struct {
	number      int
	name        string
	kind        zoneKind
	allowBypass bool
}

// zoneName prefers ZONE_NAMES, then the description the panel reports.
func (c Config) zoneName(n int, description string) string {
	names := c.ZoneNames
	if len(names) > n-1 {
		if n := names[n-1]; n != "" {
			return n
		}
	}
	if description != "" {
		return description
	}
	return fmt.Sprintf("Zone %d", n)
}

type allZoneConfigs []zoneConfig

func (a allZoneConfigs) String() string {
	var zones []string
	for _, zone := range a {
		zones = append(
			zones,
			fmt.Sprintf("zone %d: %q (%s)", zone.number, zone.name, zone.kind.String()),
		)
	}
	return strings.Join(zones, "\n")
}

func (c Config) allZones(loc *totalconnect.Location) []zoneConfig {
	description := func(n int) string {
		if loc == nil {
			return ""
		}
		if z, ok := loc.Zone(n); ok {
			return z.Description
		}
		return ""
	}

	var zones []zoneConfig
	for _, z := range c.MotionZones {
		zones = append(zones, zoneConfig{
			number:      z,
			name:        c.zoneName(z, description(z)),
			kind:        kindMotion,
			allowBypass: slices.Contains(c.BypassZones, z),
		})
	}
	for _, z := range c.ContactZones {
		zones = append(zones, zoneConfig{
			number:      z,
			name:        c.zoneName(z, description(z)),
			kind:        kindContact,
			allowBypass: slices.Contains(c.BypassZones, z),
		})
	}
	slices.SortFunc(zones, func(a, b zoneConfig) int {
		return a.number - b.number
	})
	return zones
}

// getAlarmState maps the location arming state to a HomeKit current state,
// or -1 while the panel is transitioning.
func getAlarmState(loc *totalconnect.Location) int {
	state := loc.ArmingState
	switch {
	case state.IsTriggered():
		return characteristic.SecuritySystemCurrentStateAlarmTriggered
	case state.IsDisarmed():
		return characteristic.SecuritySystemCurrentStateDisarmed
	case state.IsArmedNight():
		return characteristic.SecuritySystemCurrentStateNightArm
	case state.IsArmedStay():
		return characteristic.SecuritySystemCurrentStateStayArm
	case state.IsArmed():
		return characteristic.SecuritySystemCurrentStateAwayArm
	default:
		return -1
	}
}

// armType maps a HomeKit target state to the way the panel is armed.
func armType(target int) (totalconnect.ArmType, bool) {
	switch target {
	case characteristic.SecuritySystemTargetStateStayArm:
		return totalconnect.ArmStay, true
	case characteristic.SecuritySystemTargetStateAwayArm:
		return totalconnect.ArmAway, true
	case characteristic.SecuritySystemTargetStateNightArm:
		return totalconnect.ArmStayNight, true
	default:
		return 0, false
	}
}
