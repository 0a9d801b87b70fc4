package main

import (
	"github.com/brutella/hap/accessory"
	"github.com/brutella/hap/characteristic"
	"github.com/brutella/hap/service"
	totalconnect "github.com/craigjmidwinter/total-connect-client"
)

type AlarmSensors []*AlarmSensor

func (sensors AlarmSensors) Update(loc *totalconnect.Location) {
	for _, sensor := range sensors {
		zone, ok := loc.Zone(sensor.Number)
		if !ok {
			log.Warn("zone not reported by panel", "zone", sensor.Number)
			continue
		}
		sensor.Update(zone)
	}
}

type AlarmSensor struct {
	*accessory.A
	Number     int
	Kind       zoneKind
	Motion     *service.MotionSensor
	Contact    *service.ContactSensor
	Bypass     *service.Switch
	LowBattery *characteristic.StatusLowBattery
	Tamper     *characteristic.StatusTampered
}

// Update mirrors the zone status. The bypass switch is on while the zone is
// active, off while it is bypassed.
func (sensor *AlarmSensor) Update(zone *totalconnect.Zone) {
	name := sensor.Name()
	openGauge.WithLabelValues(name).Set(boolToFloat(zone.IsOpen()))
	bypassedGauge.WithLabelValues(name).Set(boolToFloat(zone.IsBypassed()))
	tamperGauge.WithLabelValues(name).Set(boolToFloat(zone.IsTampered()))
	lowBatteryGauge.WithLabelValues(name).Set(boolToFloat(zone.IsLowBattery()))

	batlvl := boolToInt(zone.IsLowBattery())
	if sensor.LowBattery.Value() != batlvl {
		log.Info("low battery", "zone", zone.ID, "status", zone.IsLowBattery())
		_ = sensor.LowBattery.SetValue(batlvl)
	}

	tamper := boolToInt(zone.IsTampered())
	if sensor.Tamper.Value() != tamper {
		log.Info("tamper", "zone", zone.ID, "status", zone.IsTampered())
		_ = sensor.Tamper.SetValue(tamper)
	}

	if sensor.Bypass != nil {
		bypassing := zone.IsBypassed()
		if sensor.Bypass.On.Value() == bypassing {
			log.Info("bypass", "zone", zone.ID, "status", bypassing)
			sensor.Bypass.On.SetValue(!bypassing)
		}
	}

	switch sensor.Kind {
	case kindContact:
		current := boolToInt(zone.IsOpen())
		if v := sensor.Contact.ContactSensorState.Value(); v == current {
			return
		}
		_ = sensor.Contact.ContactSensorState.SetValue(current)
		log.Info("contact", "zone", zone.ID, "status", zone.Status)
	case kindMotion:
		current := zone.IsOpen()
		if v := sensor.Motion.MotionDetected.Value(); v == current {
			return
		}
		sensor.Motion.MotionDetected.SetValue(current)
		log.Info("motion", "zone", zone.ID, "status", zone.Status)
	}
}

func newAlarmSensor(info accessory.Info, zone zoneConfig) *AlarmSensor {
	a := AlarmSensor{
		Number: zone.number,
		Kind:   zone.kind,
	}
	a.A = accessory.New(info, accessory.TypeSensor)

	a.LowBattery = characteristic.NewStatusLowBattery()
	a.Tamper = characteristic.NewStatusTampered()

	switch zone.kind {
	case kindContact:
		a.Contact = service.NewContactSensor()
		a.Contact.AddC(a.Tamper.C)
		a.Contact.AddC(a.LowBattery.C)
		a.AddS(a.Contact.S)
	case kindMotion:
		a.Motion = service.NewMotionSensor()
		a.Motion.AddC(a.LowBattery.C)
		a.Motion.AddC(a.Tamper.C)
		a.AddS(a.Motion.S)
	}

	if zone.allowBypass {
		a.Bypass = service.NewSwitch()
		a.AddS(a.Bypass.S)
	}

	return &a
}
