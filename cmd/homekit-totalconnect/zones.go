package main

import (
	"context"
	"net/http"

	"github.com/brutella/hap"
	"github.com/brutella/hap/accessory"
	totalconnect "github.com/craigjmidwinter/total-connect-client"
)

func setupZones(
	execute Executor,
	cfg Config,
	loc *totalconnect.Location,
) AlarmSensors {
	var sensors AlarmSensors
	for i, zone := range cfg.allZones(loc) {
		a := newAlarmSensor(accessory.Info{
			Name:         zone.name,
			Manufacturer: manufacturer,
		}, zone)
		a.Id = uint64(100 + i)

		if a.Bypass != nil {
			a.Bypass.On.SetValue(true)
			a.Bypass.On.SetValueRequestFunc = bypassHandler(execute, zone)
		}
		if z, ok := loc.Zone(zone.number); ok {
			a.Update(z)
		} else {
			log.Warn("configured zone not found", "zone", zone.number, "location", loc.ID)
		}
		sensors = append(sensors, a)
	}
	return sensors
}

// bypassHandler bypasses the zone when its switch is turned off. Turning it
// back on clears every bypass of the location, the service has no per zone
// variant.
func bypassHandler(execute Executor, zone zoneConfig) func(interface{}, *http.Request) (interface{}, int) {
	return func(value interface{}, r *http.Request) (response interface{}, code int) {
		ctx := context.Background()
		if r != nil {
			ctx = r.Context()
		}
		active, _ := value.(bool)
		log.Info("set zone bypass", "zone", zone.number, "bypass", !active)
		if err := execute(func(loc *totalconnect.Location) error {
			if active {
				return loc.ClearBypass(ctx)
			}
			return loc.ZoneBypass(ctx, zone.number)
		}); err != nil {
			log.Error("failed to set bypass", "zone", zone.number, "value", active, "err", err)
			return nil, hap.JsonStatusResourceBusy
		}
		return nil, hap.JsonStatusSuccess
	}
}
