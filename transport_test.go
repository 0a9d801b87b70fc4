package totalconnect

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"
)

const (
	testLocationID = 123456
	testDeviceID   = 7654321
)

var testCredentials = Credentials{
	Username:  "jdoe",
	Password:  "hunter2",
	Usercodes: map[string]string{"default": "1234"},
}

type step struct {
	op   string
	body string
	err  error
}

type sent struct {
	op   string
	args Args
}

// scriptedTransport replies to each call with the next step, decoding its
// XML body into the requested record.
type scriptedTransport struct {
	t     *testing.T
	steps []step
	calls []sent
}

func (s *scriptedTransport) Send(_ context.Context, op Operation, args Args, reply Response) error {
	s.t.Helper()
	s.calls = append(s.calls, sent{op: op.Name(), args: args})
	if len(s.steps) == 0 {
		s.t.Fatalf("unexpected call to %s", op.Name())
	}
	next := s.steps[0]
	s.steps = s.steps[1:]
	require.Equal(s.t, next.op, op.Name(), "call #%d", len(s.calls))
	if next.err != nil {
		return next.err
	}
	return xml.Unmarshal([]byte(next.body), reply)
}

func (s *scriptedTransport) script(steps ...step) {
	s.steps = append(s.steps, steps...)
}

func (s *scriptedTransport) count(op Operation) int {
	var n int
	for _, c := range s.calls {
		if c.op == op.Name() {
			n++
		}
	}
	return n
}

func (s *scriptedTransport) last() sent {
	require.NotEmpty(s.t, s.calls)
	return s.calls[len(s.calls)-1]
}

func (s *scriptedTransport) done() {
	require.Empty(s.t, s.steps, "not all scripted replies were used")
}

type manualClock struct {
	now time.Time
}

func (m *manualClock) Now() time.Time { return m.now }

func (m *manualClock) advance(d time.Duration) { m.now = m.now.Add(d) }

func coded(op Operation, code ResultCode) step {
	return step{
		op:   op.Name(),
		body: fmt.Sprintf("<Result><ResultCode>%d</ResultCode><ResultData>%s</ResultData></Result>", int(code), code),
	}
}

func failure(op Operation) step {
	return step{op: op.Name(), err: errors.New("connection reset by peer")}
}

func sessionDetails(token string) step {
	return step{op: OpGetSessionDetails.Name(), body: fmt.Sprintf(`
<SessionDetailResults>
  <ResultCode>0</ResultCode>
  <ResultData>Success</ResultData>
  <SessionID>%s</SessionID>
  <ModuleFlags>Security=1,Video=0</ModuleFlags>
  <UserInfo>
    <UserID>42</UserID>
    <Username>jdoe</Username>
    <UserFeatureList>Master=1,User Administration=0</UserFeatureList>
  </UserInfo>
  <Locations>
    <LocationInfoBasic>
      <LocationID>%d</LocationID>
      <LocationName>Home</LocationName>
      <SecurityDeviceID>%d</SecurityDeviceID>
      <LocationModuleFlags>Security=1,Bypass=1</LocationModuleFlags>
      <DeviceList>
        <DeviceInfoBasic>
          <DeviceID>%d</DeviceID>
          <DeviceName>Security Panel</DeviceName>
          <DeviceClassID>1</DeviceClassID>
          <DeviceSerialNumber>ABC123</DeviceSerialNumber>
        </DeviceInfoBasic>
      </DeviceList>
    </LocationInfoBasic>
  </Locations>
</SessionDetailResults>`, token, testLocationID, testDeviceID, testDeviceID)}
}

func authentication(token string) step {
	return step{op: OpAuthenticateUserLogin.Name(), body: fmt.Sprintf(`
<AuthenticateLoginResults>
  <ResultCode>0</ResultCode>
  <ResultData>Success</ResultData>
  <SessionID>%s</SessionID>
</AuthenticateLoginResults>`, token)}
}

func partitionDetails(state ArmingState) step {
	return step{op: OpGetPartitionsDetails.Name(), body: fmt.Sprintf(`
<PartitionDetailsResults>
  <ResultCode>0</ResultCode>
  <PartitionsInfoList>
    <PartitionDetails>
      <PartitionID>1</PartitionID>
      <PartitionName>Main</PartitionName>
      <ArmingState>%d</ArmingState>
    </PartitionDetails>
  </PartitionsInfoList>
</PartitionDetailsResults>`, int(state))}
}

func zoneDetails() step {
	return step{op: OpGetZonesList.Name(), body: `
<ZoneListResults>
  <ResultCode>0</ResultCode>
  <ZoneStatus>
    <Zones>
      <ZoneStatusInfoWithPartitionId>
        <ZoneID>1</ZoneID>
        <ZoneDescription>Front Door</ZoneDescription>
        <ZoneStatus>2</ZoneStatus>
        <PartitionId>1</PartitionId>
        <ZoneTypeId>1</ZoneTypeId>
        <CanBeBypassed>1</CanBeBypassed>
      </ZoneStatusInfoWithPartitionId>
      <ZoneStatusInfoWithPartitionId>
        <ZoneID>2</ZoneID>
        <ZoneDescription>Hallway Motion</ZoneDescription>
        <ZoneStatus>0</ZoneStatus>
        <PartitionId>1</PartitionId>
        <ZoneTypeId>3</ZoneTypeId>
        <CanBeBypassed>1</CanBeBypassed>
      </ZoneStatusInfoWithPartitionId>
    </Zones>
  </ZoneStatus>
</ZoneListResults>`}
}

func fullStatus(state ArmingState) step {
	return step{op: OpGetPanelFullStatus.Name(), body: fmt.Sprintf(`
<PanelMetadataAndFullStatusResults>
  <ResultCode>0</ResultCode>
  <ArmingState>%d</ArmingState>
  <PanelMetadataAndStatus>
    <IsInACLoss>false</IsInACLoss>
    <IsInLowBattery>true</IsInLowBattery>
    <IsCoverTampered>false</IsCoverTampered>
    <Partitions>
      <PartitionInfo>
        <PartitionID>1</PartitionID>
        <ArmingState>%d</ArmingState>
      </PartitionInfo>
    </Partitions>
    <Zones>
      <ZoneInfo>
        <ZoneID>1</ZoneID>
        <ZoneStatus>2</ZoneStatus>
      </ZoneInfo>
      <ZoneInfo>
        <ZoneID>2</ZoneID>
        <ZoneStatus>0</ZoneStatus>
      </ZoneInfo>
    </Zones>
  </PanelMetadataAndStatus>
</PanelMetadataAndFullStatusResults>`, int(state), int(state))}
}

func login(state ArmingState) []step {
	return []step{
		sessionDetails("token-1"),
		partitionDetails(state),
		zoneDetails(),
		fullStatus(state),
	}
}

func newTestClient(t *testing.T, credentials Credentials, steps ...step) (*Client, *scriptedTransport, *manualClock, error) {
	t.Helper()
	return newTestClientWith(t, credentials, nil, steps...)
}

// newTestClientWith applies opts after the test defaults.
func newTestClientWith(t *testing.T, credentials Credentials, opts []Option, steps ...step) (*Client, *scriptedTransport, *manualClock, error) {
	t.Helper()
	transport := &scriptedTransport{t: t, steps: steps}
	clock := &manualClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	cli, err := New(
		context.Background(),
		transport,
		credentials,
		append([]Option{
			WithRetryDelay(0),
			WithClock(clock),
			WithLogger(log.New(io.Discard)),
		}, opts...)...,
	)
	return cli, transport, clock, err
}

// loggedInClient returns a client past its initial load with every scripted
// reply consumed.
func loggedInClient(t *testing.T, state ArmingState) (*Client, *scriptedTransport, *manualClock) {
	t.Helper()
	cli, transport, clock, err := newTestClient(t, testCredentials, login(state)...)
	require.NoError(t, err)
	transport.done()
	transport.calls = nil
	return cli, transport, clock
}
