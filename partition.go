package totalconnect

import (
	"context"
	"fmt"
)

type ArmingState int

const (
	ArmingStateUnknown                ArmingState = 0
	ArmingStateDisarmed               ArmingState = 10200
	ArmingStateArmedAway              ArmingState = 10201
	ArmingStateArmedAwayBypass        ArmingState = 10202
	ArmingStateArmedStay              ArmingState = 10203
	ArmingStateArmedStayBypass        ArmingState = 10204
	ArmingStateArmedAwayInstant       ArmingState = 10205
	ArmingStateArmedAwayInstantBypass ArmingState = 10206
	ArmingStateAlarming               ArmingState = 10207
	ArmingStateArmedStayInstant       ArmingState = 10209
	ArmingStateArmedStayInstantBypass ArmingState = 10210
	ArmingStateDisarmedBypass         ArmingState = 10211
	ArmingStateAlarmingFireSmoke      ArmingState = 10212
	ArmingStateAlarmingCarbonMonoxide ArmingState = 10213
	ArmingStateDisarmedZoneFaulted    ArmingState = 10214
	ArmingStateArmedStayNight         ArmingState = 10218
	ArmingStateArmedStayNightBypass   ArmingState = 10219
	ArmingStateArmedCustomBypass      ArmingState = 10223
	ArmingStateArming                 ArmingState = 10307
	ArmingStateDisarming              ArmingState = 10308
)

func (s ArmingState) String() string {
	switch s {
	case ArmingStateDisarmed:
		return "Disarmed"
	case ArmingStateDisarmedBypass:
		return "Disarmed (bypass)"
	case ArmingStateDisarmedZoneFaulted:
		return "Disarmed (zone faulted)"
	case ArmingStateArmedAway:
		return "Armed away"
	case ArmingStateArmedAwayBypass:
		return "Armed away (bypass)"
	case ArmingStateArmedAwayInstant:
		return "Armed away instant"
	case ArmingStateArmedAwayInstantBypass:
		return "Armed away instant (bypass)"
	case ArmingStateArmedStay:
		return "Armed stay"
	case ArmingStateArmedStayBypass:
		return "Armed stay (bypass)"
	case ArmingStateArmedStayInstant:
		return "Armed stay instant"
	case ArmingStateArmedStayInstantBypass:
		return "Armed stay instant (bypass)"
	case ArmingStateArmedStayNight:
		return "Armed night"
	case ArmingStateArmedStayNightBypass:
		return "Armed night (bypass)"
	case ArmingStateArmedCustomBypass:
		return "Armed custom (bypass)"
	case ArmingStateAlarming:
		return "Alarming"
	case ArmingStateAlarmingFireSmoke:
		return "Alarming (fire/smoke)"
	case ArmingStateAlarmingCarbonMonoxide:
		return "Alarming (carbon monoxide)"
	case ArmingStateArming:
		return "Arming"
	case ArmingStateDisarming:
		return "Disarming"
	default:
		return fmt.Sprintf("Unknown (%d)", int(s))
	}
}

func (s ArmingState) IsDisarmed() bool {
	switch s {
	case ArmingStateDisarmed,
		ArmingStateDisarmedBypass,
		ArmingStateDisarmedZoneFaulted:
		return true
	}
	return false
}

func (s ArmingState) IsArmedAway() bool {
	switch s {
	case ArmingStateArmedAway,
		ArmingStateArmedAwayBypass,
		ArmingStateArmedAwayInstant,
		ArmingStateArmedAwayInstantBypass:
		return true
	}
	return false
}

func (s ArmingState) IsArmedStay() bool {
	switch s {
	case ArmingStateArmedStay,
		ArmingStateArmedStayBypass,
		ArmingStateArmedStayInstant,
		ArmingStateArmedStayInstantBypass:
		return true
	}
	return false
}

func (s ArmingState) IsArmedNight() bool {
	return s == ArmingStateArmedStayNight || s == ArmingStateArmedStayNightBypass
}

func (s ArmingState) IsArmed() bool {
	return s.IsArmedAway() || s.IsArmedStay() || s.IsArmedNight() ||
		s == ArmingStateArmedCustomBypass
}

func (s ArmingState) IsTriggered() bool {
	switch s {
	case ArmingStateAlarming,
		ArmingStateAlarmingFireSmoke,
		ArmingStateAlarmingCarbonMonoxide:
		return true
	}
	return false
}

func (s ArmingState) IsArming() bool    { return s == ArmingStateArming }
func (s ArmingState) IsDisarming() bool { return s == ArmingStateDisarming }

type ArmType int

const (
	ArmAway ArmType = iota
	ArmStay
	ArmStayInstant
	ArmAwayInstant
	ArmStayNight
)

func (t ArmType) String() string {
	switch t {
	case ArmAway:
		return "away"
	case ArmStay:
		return "stay"
	case ArmStayInstant:
		return "stay-instant"
	case ArmAwayInstant:
		return "away-instant"
	case ArmStayNight:
		return "night"
	default:
		return fmt.Sprintf("ArmType(%d)", int(t))
	}
}

type Partition struct {
	ID               int
	Name             string
	ArmingState      ArmingState
	StayArmed        bool
	NightStayEnabled bool

	location *Location
}

func newPartition(loc *Location, info PartitionInfo) *Partition {
	p := &Partition{ID: info.PartitionID, location: loc}
	_ = p.update(info)
	return p
}

func (p *Partition) update(info PartitionInfo) error {
	if info.PartitionID != p.ID {
		return fmt.Errorf("partition %d: refusing update for partition %d", p.ID, info.PartitionID)
	}
	if info.PartitionName != "" {
		p.Name = info.PartitionName
	}
	if info.ArmingState != ArmingStateUnknown {
		p.ArmingState = info.ArmingState
	}
	if info.IsStayArmed != nil {
		p.StayArmed = *info.IsStayArmed
	}
	if info.IsNightStayEnabled != nil {
		p.NightStayEnabled = *info.IsNightStayEnabled
	}
	return nil
}

func (p *Partition) Arm(ctx context.Context, armType ArmType) error {
	return p.location.Arm(ctx, armType, p.ID)
}

// Disarm does nothing if the partition is already disarmed or disarming.
func (p *Partition) Disarm(ctx context.Context) error {
	return p.location.Disarm(ctx, p.ID)
}

func (p *Partition) IsArmed() bool     { return p.ArmingState.IsArmed() }
func (p *Partition) IsDisarmed() bool  { return p.ArmingState.IsDisarmed() }
func (p *Partition) IsTriggered() bool { return p.ArmingState.IsTriggered() }
