package totalconnect

import (
	"net/url"
	"strconv"
	"strings"
)

// Operation describes one remote call of the service.
type Operation struct {
	name string
	// auth operations run without a session: no SessionID is sent and the
	// session is not checked before dispatch.
	auth bool
}

// Name is the vendor operation name, used by transports to build endpoints.
func (o Operation) Name() string { return o.name }

// Auth reports whether the operation is part of authentication.
func (o Operation) Auth() bool { return o.auth }

func (o Operation) String() string { return o.name }

var (
	OpGetSessionDetails        = Operation{name: "GetSessionDetails", auth: true}
	OpAuthenticateUserLogin    = Operation{name: "AuthenticateUserLogin", auth: true}
	OpKeepAlive                = Operation{name: "KeepAlive"}
	OpLogout                   = Operation{name: "Logout"}
	OpGetPanelFullStatus       = Operation{name: "GetPanelMetaDataAndFullStatusEx"}
	OpGetPartitionsDetails     = Operation{name: "GetPartitionsDetails"}
	OpGetZonesList             = Operation{name: "GetZonesListInStateEx_V1"}
	OpArmSecuritySystem        = Operation{name: "ArmSecuritySystemPartitionsV1"}
	OpDisarmSecuritySystem     = Operation{name: "DisarmSecuritySystemPartitionsV1"}
	OpBypass                   = Operation{name: "Bypass"}
	OpBypassAll                = Operation{name: "BypassAll"}
	OpClearBypass              = Operation{name: "ClearBypass"}
	OpSynchronizeSecurityPanel = Operation{name: "SynchronizeSecurityPanel"}
	OpValidateUserCode         = Operation{name: "ValidateUserCode"}
)

var operations = []Operation{
	OpGetSessionDetails,
	OpAuthenticateUserLogin,
	OpKeepAlive,
	OpLogout,
	OpGetPanelFullStatus,
	OpGetPartitionsDetails,
	OpGetZonesList,
	OpArmSecuritySystem,
	OpDisarmSecuritySystem,
	OpBypass,
	OpBypassAll,
	OpClearBypass,
	OpSynchronizeSecurityPanel,
	OpValidateUserCode,
}

// Operations lists every operation the client may dispatch.
func Operations() []Operation {
	return append([]Operation(nil), operations...)
}

// Args are the named arguments of an operation. List arguments are repeated
// keys.
type Args = url.Values

const argSessionID = "SessionID"

// Result is the status block present in every reply.
type Result struct {
	ResultCode *ResultCode `xml:"ResultCode"`
	ResultData string      `xml:"ResultData"`
}

func (r *Result) result() *Result { return r }

// Response is a typed reply record. Every record embeds Result.
type Response interface {
	result() *Result
}

// validator is implemented by records that can detect truncated payloads.
type validator interface {
	validate() error
}

type SessionDetails struct {
	Result
	SessionID   string         `xml:"SessionID"`
	ModuleFlags string         `xml:"ModuleFlags"`
	UserInfo    *UserInfo      `xml:"UserInfo"`
	Locations   []LocationInfo `xml:"Locations>LocationInfoBasic"`
}

func (s *SessionDetails) validate() error {
	if s.SessionID == "" {
		return partial("SessionID")
	}
	if s.UserInfo == nil {
		return partial("UserInfo")
	}
	return nil
}

type UserInfo struct {
	UserID          int    `xml:"UserID"`
	Username        string `xml:"Username"`
	UserFeatureList string `xml:"UserFeatureList"`
}

type LocationInfo struct {
	LocationID          int          `xml:"LocationID"`
	LocationName        string       `xml:"LocationName"`
	SecurityDeviceID    int          `xml:"SecurityDeviceID"`
	LocationModuleFlags string       `xml:"LocationModuleFlags"`
	Devices             []DeviceInfo `xml:"DeviceList>DeviceInfoBasic"`
}

type DeviceInfo struct {
	DeviceID           int    `xml:"DeviceID"`
	DeviceName         string `xml:"DeviceName"`
	DeviceClassID      int    `xml:"DeviceClassID"`
	DeviceSerialNumber string `xml:"DeviceSerialNumber"`
	DeviceFlags        string `xml:"DeviceFlags"`
}

type Authentication struct {
	Result
	SessionID string `xml:"SessionID"`
}

func (a *Authentication) validate() error {
	if a.SessionID == "" {
		return partial("SessionID")
	}
	return nil
}

type PanelStatus struct {
	Result
	ArmingState *ArmingState   `xml:"ArmingState"`
	Panel       *PanelMetadata `xml:"PanelMetadataAndStatus"`
}

func (p *PanelStatus) validate() error {
	if p.Panel == nil {
		return partial("PanelMetadataAndStatus")
	}
	if p.ArmingState == nil {
		return partial("ArmingState")
	}
	if len(p.Panel.Partitions) == 0 {
		return partial("Partitions")
	}
	return nil
}

type PanelMetadata struct {
	IsInACLoss      bool            `xml:"IsInACLoss"`
	IsInLowBattery  bool            `xml:"IsInLowBattery"`
	IsCoverTampered bool            `xml:"IsCoverTampered"`
	Partitions      []PartitionInfo `xml:"Partitions>PartitionInfo"`
	Zones           []ZoneInfo      `xml:"Zones>ZoneInfo"`
}

type PartitionInfo struct {
	PartitionID        int         `xml:"PartitionID"`
	PartitionName      string      `xml:"PartitionName"`
	ArmingState        ArmingState `xml:"ArmingState"`
	IsStayArmed        *bool       `xml:"IsStayArmed"`
	IsNightStayEnabled *bool       `xml:"IsNightStayEnabled"`
}

type PartitionDetails struct {
	Result
	List *struct {
		Partitions []PartitionInfo `xml:"PartitionDetails"`
	} `xml:"PartitionsInfoList"`
}

func (p *PartitionDetails) validate() error {
	if p.List == nil || len(p.List.Partitions) == 0 {
		return partial("PartitionsInfoList")
	}
	return nil
}

type ZoneInfo struct {
	ZoneID          int        `xml:"ZoneID"`
	ZoneDescription string     `xml:"ZoneDescription"`
	ZoneStatus      ZoneStatus `xml:"ZoneStatus"`
	PartitionID     int        `xml:"PartitionId"`
	ZoneTypeID      int        `xml:"ZoneTypeId"`
	CanBeBypassed   *bool      `xml:"CanBeBypassed"`
}

type ZoneList struct {
	Result
	Status *struct {
		Zones []ZoneInfo `xml:"Zones>ZoneStatusInfoWithPartitionId"`
	} `xml:"ZoneStatus"`
}

func (z *ZoneList) validate() error {
	if z.Status == nil {
		return partial("ZoneStatus")
	}
	return nil
}

// parseFlags decodes the "Name=1,Other=0" lists the service uses for module
// and feature flags.
func parseFlags(s string) map[string]string {
	flags := map[string]string{}
	for _, part := range strings.Split(s, ",") {
		k, v, _ := strings.Cut(part, "=")
		if k = strings.TrimSpace(k); k != "" {
			flags[k] = strings.TrimSpace(v)
		}
	}
	return flags
}

func itoa(i int) string { return strconv.Itoa(i) }
