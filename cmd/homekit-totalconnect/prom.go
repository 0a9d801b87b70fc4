package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var armStateGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "homekit_totalconnect",
	Subsystem: "alarm",
	Name:      "state",
	Help:      "HomeKit security system state, -1 while arming or disarming.",
})

var armingStateGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "homekit_totalconnect",
	Subsystem: "alarm",
	Name:      "arming_state",
	Help:      "Raw arming state reported by Total Connect.",
})

var tamperGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "homekit_totalconnect",
	Subsystem: "alarm",
	Name:      "tamper",
}, []string{"name"})

var lowBatteryGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "homekit_totalconnect",
	Subsystem: "alarm",
	Name:      "low_battery",
}, []string{"name"})

var acLossGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "homekit_totalconnect",
	Subsystem: "alarm",
	Name:      "ac_loss",
})

var openGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "homekit_totalconnect",
	Subsystem: "alarm",
	Name:      "open",
}, []string{"name"})

var bypassedGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "homekit_totalconnect",
	Subsystem: "alarm",
	Name:      "bypassed",
}, []string{"name"})

var requestCounter = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "homekit_totalconnect",
	Subsystem: "client",
	Name:      "requests_total",
})

var requestErrorCounter = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "homekit_totalconnect",
	Subsystem: "client",
	Name:      "request_errors_total",
})

var loggedInGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "homekit_totalconnect",
	Subsystem: "client",
	Name:      "logged_in",
})

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
