package main

import (
	"context"
	"net/http"

	"github.com/brutella/hap"
	"github.com/brutella/hap/accessory"
	"github.com/brutella/hap/characteristic"
	"github.com/brutella/hap/service"
	totalconnect "github.com/craigjmidwinter/total-connect-client"
)

type SecuritySystem struct {
	*accessory.A
	SecuritySystem *service.SecuritySystem
	LowBattery     *characteristic.StatusLowBattery
	Tampered       *characteristic.StatusTampered
	PowerFault     *characteristic.StatusFault

	execute Executor
}

func NewSecuritySystem(info accessory.Info, execute Executor) *SecuritySystem {
	a := &SecuritySystem{
		execute: execute,
	}
	a.A = accessory.New(info, accessory.TypeSecuritySystem)

	a.SecuritySystem = service.NewSecuritySystem()
	a.AddS(a.SecuritySystem.S)

	a.Tampered = characteristic.NewStatusTampered()
	a.SecuritySystem.AddC(a.Tampered.C)

	a.LowBattery = characteristic.NewStatusLowBattery()
	a.SecuritySystem.AddC(a.LowBattery.C)

	a.PowerFault = characteristic.NewStatusFault()
	a.SecuritySystem.AddC(a.PowerFault.C)

	a.SecuritySystem.SecuritySystemTargetState.SetValueRequestFunc = a.updateHandler

	return a
}

func (a *SecuritySystem) Update(loc *totalconnect.Location) {
	state := getAlarmState(loc)
	armStateGauge.Set(float64(state))
	armingStateGauge.Set(float64(loc.ArmingState))
	tamperGauge.WithLabelValues("system").Set(boolToFloat(loc.CoverTampered))
	lowBatteryGauge.WithLabelValues("system").Set(boolToFloat(loc.LowBattery))
	acLossGauge.Set(boolToFloat(loc.ACLoss))

	if state >= 0 && a.SecuritySystem.SecuritySystemCurrentState.Value() != state {
		err := a.SecuritySystem.SecuritySystemCurrentState.SetValue(state)
		log.Info("set current state", "state", state, "arming", loc.ArmingState, "err", err)
	}

	if v := boolToInt(loc.CoverTampered); a.Tampered.Value() != v {
		_ = a.Tampered.SetValue(v)
		log.Info("alarm status", "tamper", loc.CoverTampered)
	}

	if v := boolToInt(loc.LowBattery); a.LowBattery.Value() != v {
		_ = a.LowBattery.SetValue(v)
		log.Info("alarm status", "low-battery", loc.LowBattery)
	}

	if v := boolToInt(loc.ACLoss); a.PowerFault.Value() != v {
		_ = a.PowerFault.SetValue(v)
		log.Info("alarm status", "ac-loss", loc.ACLoss)
	}
}

func (a *SecuritySystem) updateHandler(
	v interface{},
	r *http.Request,
) (response interface{}, code int) {
	ctx := context.Background()
	if r != nil {
		ctx = r.Context()
	}

	target, _ := v.(int)
	if target == characteristic.SecuritySystemTargetStateDisarm {
		log.Info("disarm")
		if err := a.execute(func(loc *totalconnect.Location) error {
			return loc.Disarm(ctx)
		}); err != nil {
			log.Error("could not disarm", "err", err)
			return nil, hap.JsonStatusInvalidValueInRequest
		}
		return nil, hap.JsonStatusSuccess
	}

	mode, ok := armType(target)
	if !ok {
		return nil, hap.JsonStatusResourceDoesNotExist
	}

	// The panel does not switch between armed modes directly, so disarm
	// first. Nothing is sent if it is disarmed already.
	if err := a.execute(func(loc *totalconnect.Location) error {
		if err := loc.Disarm(ctx); err != nil {
			return err
		}
		log.Info("arm", "type", mode)
		return loc.Arm(ctx, mode)
	}); err != nil {
		log.Error("could not arm", "type", mode, "err", err)
		_ = a.SecuritySystem.SecuritySystemTargetState.SetValue(
			characteristic.SecuritySystemTargetStateDisarm,
		)
		return nil, hap.JsonStatusResourceBusy
	}
	return nil, hap.JsonStatusSuccess
}
