package totalconnect

import (
	"context"
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Location is a site with one security panel, its partitions and zones.
type Location struct {
	ID               int
	Name             string
	SecurityDeviceID int
	ModuleFlags      map[string]string
	ArmingState      ArmingState
	ACLoss           bool
	LowBattery       bool
	CoverTampered    bool
	Devices          map[int]*Device
	Partitions       map[int]*Partition
	Zones            map[int]*Zone

	usercode string
	client   *Client
}

func newLocation(c *Client, info LocationInfo) *Location {
	loc := &Location{
		ID:               info.LocationID,
		Name:             info.LocationName,
		SecurityDeviceID: info.SecurityDeviceID,
		ModuleFlags:      parseFlags(info.LocationModuleFlags),
		Devices:          map[int]*Device{},
		Partitions:       map[int]*Partition{},
		Zones:            map[int]*Zone{},
		client:           c,
	}
	loc.usercode, _ = c.credentials.Usercode(loc.ID)
	for _, d := range info.Devices {
		loc.Devices[d.DeviceID] = newDevice(d)
	}
	return loc
}

func (l *Location) Partition(id int) (*Partition, bool) {
	p, ok := l.Partitions[id]
	return p, ok
}

func (l *Location) Zone(id int) (*Zone, bool) {
	z, ok := l.Zones[id]
	return z, ok
}

func (l *Location) PartitionIDs() []int {
	ids := maps.Keys(l.Partitions)
	slices.Sort(ids)
	return ids
}

func (l *Location) ZoneIDs() []int {
	ids := maps.Keys(l.Zones)
	slices.Sort(ids)
	return ids
}

func (l *Location) IsArmed() bool     { return l.ArmingState.IsArmed() }
func (l *Location) IsDisarmed() bool  { return l.ArmingState.IsDisarmed() }
func (l *Location) IsArming() bool    { return l.ArmingState.IsArming() }
func (l *Location) IsDisarming() bool { return l.ArmingState.IsDisarming() }
func (l *Location) IsTriggered() bool { return l.ArmingState.IsTriggered() }

// ArmedPartitions counts the partitions currently armed.
func (l *Location) ArmedPartitions() int {
	var n int
	for _, p := range l.Partitions {
		if p.IsArmed() {
			n++
		}
	}
	return n
}

func (l *Location) args() Args {
	return Args{
		"LocationID": {itoa(l.ID)},
		"DeviceID":   {itoa(l.SecurityDeviceID)},
	}
}

func (l *Location) authorizedArgs() (Args, error) {
	if l.usercode == "" {
		return nil, fmt.Errorf("%w: no usercode configured for location %d", ErrUsercodeInvalid, l.ID)
	}
	args := l.args()
	args.Set("UserCode", l.usercode)
	return args, nil
}

func (l *Location) targets(ids []int) ([]*Partition, error) {
	if len(ids) == 0 {
		ids = l.PartitionIDs()
	}
	var parts []*Partition
	for _, id := range ids {
		p, ok := l.Partitions[id]
		if !ok {
			return nil, fmt.Errorf("location %d has no partition %d", l.ID, id)
		}
		parts = append(parts, p)
	}
	return parts, nil
}

// Arm arms the given partitions, or all of them when none are given.
func (l *Location) Arm(ctx context.Context, armType ArmType, partitionIDs ...int) error {
	parts, err := l.targets(partitionIDs)
	if err != nil {
		return fmt.Errorf("could not arm: %w", err)
	}
	args, err := l.authorizedArgs()
	if err != nil {
		return fmt.Errorf("could not arm: %w", err)
	}
	args.Set("ArmType", itoa(int(armType)))
	for _, p := range parts {
		args.Add("PartitionList", itoa(p.ID))
	}

	var reply Result
	if err := l.client.Call(ctx, OpArmSecuritySystem, args, &reply); err != nil {
		return fmt.Errorf("could not arm %s: %w", armType, err)
	}
	l.client.log.Info("arm", "location", l.ID, "type", armType, "partitions", len(parts))
	for _, p := range parts {
		p.ArmingState = ArmingStateArming
	}
	l.ArmingState = ArmingStateArming
	return nil
}

// Disarm disarms the given partitions, or all of them when none are given.
// Nothing is sent when every target is already disarmed or disarming in the
// cached state.
func (l *Location) Disarm(ctx context.Context, partitionIDs ...int) error {
	parts, err := l.targets(partitionIDs)
	if err != nil {
		return fmt.Errorf("could not disarm: %w", err)
	}
	pending := false
	for _, p := range parts {
		if !p.ArmingState.IsDisarmed() && !p.ArmingState.IsDisarming() {
			pending = true
		}
	}
	if !pending {
		l.client.log.Debug("already disarmed", "location", l.ID)
		return nil
	}

	args, err := l.authorizedArgs()
	if err != nil {
		return fmt.Errorf("could not disarm: %w", err)
	}
	for _, p := range parts {
		args.Add("PartitionList", itoa(p.ID))
	}

	var reply Result
	if err := l.client.Call(ctx, OpDisarmSecuritySystem, args, &reply); err != nil {
		return fmt.Errorf("could not disarm: %w", err)
	}
	l.client.log.Info("disarm", "location", l.ID, "partitions", len(parts))
	for _, p := range parts {
		p.ArmingState = ArmingStateDisarming
	}
	l.ArmingState = ArmingStateDisarming
	return nil
}

func (l *Location) ZoneBypass(ctx context.Context, zoneID int) error {
	zone, ok := l.Zones[zoneID]
	if !ok {
		return fmt.Errorf("could not bypass: location %d has no zone %d", l.ID, zoneID)
	}
	args, err := l.authorizedArgs()
	if err != nil {
		return fmt.Errorf("could not bypass zone %d: %w", zoneID, err)
	}
	args.Set("Zone", itoa(zoneID))

	var reply Result
	if err := l.client.Call(ctx, OpBypass, args, &reply); err != nil {
		return fmt.Errorf("could not bypass zone %d: %w", zoneID, err)
	}
	zone.Status |= ZoneStatusBypassed
	l.client.log.Info("bypass", "location", l.ID, "zone", zoneID)
	return nil
}

// ZoneBypassAll bypasses every faulted zone that can be bypassed.
func (l *Location) ZoneBypassAll(ctx context.Context) error {
	args, err := l.authorizedArgs()
	if err != nil {
		return fmt.Errorf("could not bypass all zones: %w", err)
	}
	var reply Result
	if err := l.client.Call(ctx, OpBypassAll, args, &reply); err != nil {
		return fmt.Errorf("could not bypass all zones: %w", err)
	}
	for _, z := range l.Zones {
		if z.IsFaulted() && z.CanBeBypassed {
			z.Status |= ZoneStatusBypassed
		}
	}
	l.client.log.Info("bypass all", "location", l.ID)
	return nil
}

func (l *Location) ClearBypass(ctx context.Context) error {
	args, err := l.authorizedArgs()
	if err != nil {
		return fmt.Errorf("could not clear bypass: %w", err)
	}
	var reply Result
	if err := l.client.Call(ctx, OpClearBypass, args, &reply); err != nil {
		return fmt.Errorf("could not clear bypass: %w", err)
	}
	for _, z := range l.Zones {
		z.Status &^= ZoneStatusBypassed
	}
	l.client.log.Info("clear bypass", "location", l.ID)
	return nil
}

// SyncPanel asks the service to resynchronize with the panel.
func (l *Location) SyncPanel(ctx context.Context) error {
	var reply Result
	if err := l.client.Call(ctx, OpSynchronizeSecurityPanel, l.args(), &reply); err != nil {
		return fmt.Errorf("could not sync panel: %w", err)
	}
	return nil
}

func (l *Location) ValidateUsercode(ctx context.Context, code string) (bool, error) {
	return l.client.ValidateUsercode(ctx, l.ID, code)
}

// Refresh fetches the full panel status.
func (l *Location) Refresh(ctx context.Context) error {
	args := Args{
		"LocationID":                {itoa(l.ID)},
		"LastSequenceNumber":        {"0"},
		"LastUpdatedTimestampTicks": {"0"},
		"PartitionID":               {"0"},
	}
	var reply PanelStatus
	if err := l.client.Call(ctx, OpGetPanelFullStatus, args, &reply); err != nil {
		return fmt.Errorf("could not get panel status: %w", err)
	}
	l.ArmingState = *reply.ArmingState
	l.ACLoss = reply.Panel.IsInACLoss
	l.LowBattery = reply.Panel.IsInLowBattery
	l.CoverTampered = reply.Panel.IsCoverTampered
	if err := l.updatePartitions(reply.Panel.Partitions); err != nil {
		return err
	}
	return l.updateZones(reply.Panel.Zones)
}

func (l *Location) RefreshPartitions(ctx context.Context) error {
	var reply PartitionDetails
	if err := l.client.Call(ctx, OpGetPartitionsDetails, l.args(), &reply); err != nil {
		return fmt.Errorf("could not get partition details: %w", err)
	}
	return l.updatePartitions(reply.List.Partitions)
}

func (l *Location) RefreshZones(ctx context.Context) error {
	args := Args{
		"LocationID":       {itoa(l.ID)},
		"PartitionID":      {"0"},
		"ListIdentifierID": {"0"},
	}
	var reply ZoneList
	if err := l.client.Call(ctx, OpGetZonesList, args, &reply); err != nil {
		return fmt.Errorf("could not get zone details: %w", err)
	}
	return l.updateZones(reply.Status.Zones)
}

func (l *Location) updatePartitions(infos []PartitionInfo) error {
	for _, info := range infos {
		p, ok := l.Partitions[info.PartitionID]
		if !ok {
			l.Partitions[info.PartitionID] = newPartition(l, info)
			continue
		}
		if err := p.update(info); err != nil {
			return err
		}
	}
	return nil
}

func (l *Location) updateZones(infos []ZoneInfo) error {
	for _, info := range infos {
		z, ok := l.Zones[info.ZoneID]
		if !ok {
			l.Zones[info.ZoneID] = newZone(l, info)
			continue
		}
		if err := z.update(info); err != nil {
			return err
		}
	}
	return nil
}
