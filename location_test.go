package totalconnect

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func testLocation(t *testing.T, state ArmingState) (*Location, *scriptedTransport) {
	t.Helper()
	cli, transport, _ := loggedInClient(t, state)
	loc, ok := cli.Location(testLocationID)
	require.True(t, ok)
	return loc, transport
}

func TestDisarmAlreadyDisarmed(t *testing.T) {
	for _, state := range []ArmingState{
		ArmingStateDisarmed,
		ArmingStateDisarmedBypass,
		ArmingStateDisarmedZoneFaulted,
		ArmingStateDisarming,
	} {
		t.Run(state.String(), func(t *testing.T) {
			loc, transport := testLocation(t, state)
			require.NoError(t, loc.Disarm(context.Background()))
			require.Empty(t, transport.calls)
		})
	}
}

func TestDisarm(t *testing.T) {
	loc, transport := testLocation(t, ArmingStateArmedAway)
	transport.script(coded(OpDisarmSecuritySystem, ResultDisarmSuccess))

	require.NoError(t, loc.Disarm(context.Background()))
	transport.done()

	args := transport.last().args
	require.Equal(t, "123456", args.Get("LocationID"))
	require.Equal(t, "7654321", args.Get("DeviceID"))
	require.Equal(t, "1234", args.Get("UserCode"))
	require.Equal(t, []string{"1"}, args["PartitionList"])
	require.Equal(t, ArmingStateDisarming, loc.ArmingState)

	part, _ := loc.Partition(1)
	require.True(t, part.ArmingState.IsDisarming())

	// a second disarm is a no-op until the panel reports otherwise
	require.NoError(t, part.Disarm(context.Background()))
	require.Len(t, transport.calls, 1)
}

func TestDisarmRejected(t *testing.T) {
	loc, transport := testLocation(t, ArmingStateArmedStay)
	transport.script(coded(OpDisarmSecuritySystem, ResultUsercodeInvalid))

	require.ErrorIs(t, loc.Disarm(context.Background()), ErrUsercodeInvalid)
	require.Equal(t, ArmingStateArmedStay, loc.ArmingState)
}

func TestArm(t *testing.T) {
	for armType, want := range map[ArmType]string{
		ArmAway:        "0",
		ArmStay:        "1",
		ArmStayInstant: "2",
		ArmAwayInstant: "3",
		ArmStayNight:   "4",
	} {
		t.Run(armType.String(), func(t *testing.T) {
			loc, transport := testLocation(t, ArmingStateDisarmed)
			transport.script(coded(OpArmSecuritySystem, ResultArmSuccess))

			require.NoError(t, loc.Arm(context.Background(), armType))
			transport.done()

			args := transport.last().args
			require.Equal(t, want, args.Get("ArmType"))
			require.Equal(t, "1234", args.Get("UserCode"))
			require.Equal(t, []string{"1"}, args["PartitionList"])
			require.Equal(t, "token-1", args.Get(argSessionID))
			require.True(t, loc.IsArming())
		})
	}
}

func TestArmFailed(t *testing.T) {
	loc, transport := testLocation(t, ArmingStateDisarmed)
	transport.script(coded(OpArmSecuritySystem, ResultCommandFailed))

	require.ErrorIs(t, loc.Arm(context.Background(), ArmAway), ErrCommandFailed)
	require.True(t, loc.IsDisarmed())
}

func TestArmUnknownPartition(t *testing.T) {
	loc, transport := testLocation(t, ArmingStateDisarmed)
	require.ErrorContains(t, loc.Arm(context.Background(), ArmAway, 7), "no partition 7")
	require.Empty(t, transport.calls)
}

func TestArmWithoutUsercode(t *testing.T) {
	creds := testCredentials
	creds.Usercodes = map[string]string{"999": "1111"}
	cli, transport, _, err := newTestClient(t, creds, login(ArmingStateDisarmed)...)
	require.NoError(t, err)
	transport.calls = nil

	loc, _ := cli.Location(testLocationID)
	require.ErrorIs(t, loc.Arm(context.Background(), ArmAway), ErrUsercodeInvalid)
	require.Empty(t, transport.calls)
}

func TestZoneBypass(t *testing.T) {
	loc, transport := testLocation(t, ArmingStateDisarmed)
	zone, _ := loc.Zone(1)
	require.False(t, zone.IsBypassed())

	transport.script(coded(OpBypass, ResultSuccess))
	require.NoError(t, zone.Bypass(context.Background()))
	require.Equal(t, "1", transport.last().args.Get("Zone"))
	require.Equal(t, "1234", transport.last().args.Get("UserCode"))
	require.True(t, zone.IsBypassed())
	require.True(t, zone.IsFaulted())

	transport.script(coded(OpBypass, ResultFailedToBypassZone))
	err := loc.ZoneBypass(context.Background(), 2)
	require.ErrorIs(t, err, ErrFailedToBypassZone)
	require.ErrorIs(t, err, ErrCommandFailed)
	other, _ := loc.Zone(2)
	require.False(t, other.IsBypassed())

	require.ErrorContains(t, loc.ZoneBypass(context.Background(), 99), "no zone 99")
	transport.done()
}

func TestZoneBypassAllAndClear(t *testing.T) {
	loc, transport := testLocation(t, ArmingStateDisarmed)
	door, _ := loc.Zone(1)
	hall, _ := loc.Zone(2)

	transport.script(coded(OpBypassAll, ResultSuccess))
	require.NoError(t, loc.ZoneBypassAll(context.Background()))
	require.True(t, door.IsBypassed())
	require.False(t, hall.IsBypassed())

	transport.script(coded(OpClearBypass, ResultSuccess))
	require.NoError(t, loc.ClearBypass(context.Background()))
	require.False(t, door.IsBypassed())
	require.True(t, door.IsFaulted())
	transport.done()
}

func TestSyncPanel(t *testing.T) {
	loc, transport := testLocation(t, ArmingStateDisarmed)
	transport.script(coded(OpSynchronizeSecurityPanel, ResultSuccess))
	require.NoError(t, loc.SyncPanel(context.Background()))
	require.NotContains(t, transport.last().args, "UserCode")
	transport.done()
}

func TestRefresh(t *testing.T) {
	loc, transport := testLocation(t, ArmingStateDisarmed)
	transport.script(fullStatus(ArmingStateAlarming))

	require.NoError(t, loc.Refresh(context.Background()))
	transport.done()
	require.True(t, loc.IsTriggered())
	part, _ := loc.Partition(1)
	require.True(t, part.IsTriggered())
	require.Equal(t, "Main", part.Name)

	args := transport.last().args
	require.Equal(t, "0", args.Get("LastSequenceNumber"))
	require.Equal(t, "0", args.Get("LastUpdatedTimestampTicks"))
	require.Equal(t, "0", args.Get("PartitionID"))
}

func TestRefreshPartialIsRetried(t *testing.T) {
	loc, transport := testLocation(t, ArmingStateDisarmed)
	transport.script(
		step{op: OpGetPanelFullStatus.Name(), body: "<R><ResultCode>0</ResultCode><ArmingState>10201</ArmingState></R>"},
		fullStatus(ArmingStateArmedAway),
	)
	require.NoError(t, loc.Refresh(context.Background()))
	transport.done()
	require.True(t, loc.IsArmed())
}

func TestUpdateRejectsForeignID(t *testing.T) {
	loc, _ := testLocation(t, ArmingStateDisarmed)

	part, _ := loc.Partition(1)
	require.Error(t, part.update(PartitionInfo{PartitionID: 2, ArmingState: ArmingStateArmedAway}))
	require.True(t, part.IsDisarmed())

	zone, _ := loc.Zone(1)
	require.Error(t, zone.update(ZoneInfo{ZoneID: 2, ZoneStatus: ZoneStatusTampered}))
	require.False(t, zone.IsTampered())
}

func TestPartitionUpdateKeepsKnownValues(t *testing.T) {
	p := &Partition{ID: 1, Name: "Main", ArmingState: ArmingStateArmedStay}
	require.NoError(t, p.update(PartitionInfo{PartitionID: 1}))
	require.Equal(t, "Main", p.Name)
	require.Equal(t, ArmingStateArmedStay, p.ArmingState)

	require.NoError(t, p.update(PartitionInfo{PartitionID: 1, IsStayArmed: boolPtr(true), IsNightStayEnabled: boolPtr(true)}))
	require.NoError(t, p.update(PartitionInfo{PartitionID: 1, ArmingState: ArmingStateArmedStayNight}))
	require.True(t, p.StayArmed)
	require.True(t, p.NightStayEnabled)

	require.NoError(t, p.update(PartitionInfo{PartitionID: 1, IsStayArmed: boolPtr(false)}))
	require.False(t, p.StayArmed)
	require.True(t, p.NightStayEnabled)
}

func TestZoneUpdateKeepsKnownValues(t *testing.T) {
	z := &Zone{ID: 1, Description: "Front Door", CanBeBypassed: true}
	require.NoError(t, z.update(ZoneInfo{ZoneID: 1, ZoneStatus: ZoneStatusFaulted}))
	require.Equal(t, "Front Door", z.Description)
	require.True(t, z.CanBeBypassed)
	require.True(t, z.IsFaulted())

	require.NoError(t, z.update(ZoneInfo{ZoneID: 1, CanBeBypassed: boolPtr(false)}))
	require.False(t, z.CanBeBypassed)
	require.False(t, z.IsFaulted())
}

func boolPtr(b bool) *bool { return &b }

func TestZoneStatusString(t *testing.T) {
	require.Equal(t, "normal", ZoneStatusNormal.String())
	require.Equal(t, "bypassed,faulted", (ZoneStatusBypassed | ZoneStatusFaulted).String())
	require.Equal(t, "low-battery,triggered", (ZoneStatusLowBattery | ZoneStatusTriggered).String())
	require.Equal(t, "unknown(4)", ZoneStatus(4).String())
}

func TestArmingStatePredicates(t *testing.T) {
	require.True(t, ArmingStateArmedAwayInstantBypass.IsArmedAway())
	require.True(t, ArmingStateArmedStayInstant.IsArmedStay())
	require.True(t, ArmingStateArmedStayNightBypass.IsArmedNight())
	require.True(t, ArmingStateArmedCustomBypass.IsArmed())
	require.False(t, ArmingStateArming.IsArmed())
	require.False(t, ArmingStateDisarmedBypass.IsArmed())
	require.True(t, ArmingStateAlarmingCarbonMonoxide.IsTriggered())
	require.False(t, ArmingStateUnknown.IsDisarmed())
	require.Equal(t, "Disarmed", ArmingStateDisarmed.String())
}
