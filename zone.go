package totalconnect

import (
	"context"
	"fmt"
	"strings"
)

// ZoneStatus is the status bitmask the panel reports for a zone.
type ZoneStatus uint16

const ZoneStatusNormal ZoneStatus = 0

const (
	ZoneStatusBypassed ZoneStatus = 1 << iota
	ZoneStatusFaulted
	_
	ZoneStatusTrouble
	ZoneStatusTampered
	_
	ZoneStatusLowBattery
	_
	ZoneStatusTriggered
)

func (s ZoneStatus) String() string {
	if s == ZoneStatusNormal {
		return "normal"
	}
	var parts []string
	for _, f := range []struct {
		bit  ZoneStatus
		name string
	}{
		{ZoneStatusBypassed, "bypassed"},
		{ZoneStatusFaulted, "faulted"},
		{ZoneStatusTrouble, "trouble"},
		{ZoneStatusTampered, "tampered"},
		{ZoneStatusLowBattery, "low-battery"},
		{ZoneStatusTriggered, "triggered"},
	} {
		if s&f.bit != 0 {
			parts = append(parts, f.name)
		}
	}
	if len(parts) == 0 {
		return fmt.Sprintf("unknown(%d)", uint16(s))
	}
	return strings.Join(parts, ",")
}

type Zone struct {
	ID            int
	Description   string
	PartitionID   int
	TypeID        int
	Status        ZoneStatus
	CanBeBypassed bool

	location *Location
}

func newZone(loc *Location, info ZoneInfo) *Zone {
	z := &Zone{ID: info.ZoneID, location: loc}
	_ = z.update(info)
	return z
}

func (z *Zone) update(info ZoneInfo) error {
	if info.ZoneID != z.ID {
		return fmt.Errorf("zone %d: refusing update for zone %d", z.ID, info.ZoneID)
	}
	if info.ZoneDescription != "" {
		z.Description = info.ZoneDescription
	}
	if info.PartitionID != 0 {
		z.PartitionID = info.PartitionID
	}
	if info.ZoneTypeID != 0 {
		z.TypeID = info.ZoneTypeID
	}
	z.Status = info.ZoneStatus
	if info.CanBeBypassed != nil {
		z.CanBeBypassed = *info.CanBeBypassed
	}
	return nil
}

func (z *Zone) Bypass(ctx context.Context) error {
	return z.location.ZoneBypass(ctx, z.ID)
}

func (z *Zone) IsBypassed() bool   { return z.Status&ZoneStatusBypassed != 0 }
func (z *Zone) IsFaulted() bool    { return z.Status&ZoneStatusFaulted != 0 }
func (z *Zone) IsTrouble() bool    { return z.Status&ZoneStatusTrouble != 0 }
func (z *Zone) IsTampered() bool   { return z.Status&ZoneStatusTampered != 0 }
func (z *Zone) IsLowBattery() bool { return z.Status&ZoneStatusLowBattery != 0 }
func (z *Zone) IsTriggered() bool  { return z.Status&ZoneStatusTriggered != 0 }

// IsOpen shows the zone as open if it is faulted or triggered.
func (z *Zone) IsOpen() bool {
	return z.IsFaulted() || z.IsTriggered()
}
