// Package metrics holds the Prometheus instrumentation of the fleet. Recording works whether or
// not Register has been called, so cars and the dispatcher record unconditionally.
package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "elevfleet"

const (
	ExitGraceful = "graceful"
	ExitError    = "error"
)

var (
	hallCallsAssigned = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hall_calls_assigned_total",
			Help:      "Count of hall calls the dispatcher assigned to each car.",
		},
		[]string{"car"},
	)
	carFloor = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "car_floor",
			Help:      "Last floor reported by each car.",
		},
		[]string{"car"},
	)
	carPendingRequests = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "car_pending_requests",
			Help:      "Pending requests last reported by each car.",
		},
		[]string{"car"},
	)
	hardwareErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hardware_errors_total",
			Help:      "Count of non-critical hardware errors per car, by kind (protocol or link).",
		},
		[]string{"car", "kind"},
	)
	carExits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "car_exits_total",
			Help:      "Count of car control loop exits, by result.",
		},
		[]string{"car", "result"},
	)
)

var registerMetrics sync.Once

// Register all metrics with reg. Only the first call has an effect.
func Register(reg prometheus.Registerer) {
	registerMetrics.Do(func() {
		reg.MustRegister(hallCallsAssigned)
		reg.MustRegister(carFloor)
		reg.MustRegister(carPendingRequests)
		reg.MustRegister(hardwareErrors)
		reg.MustRegister(carExits)
	})
}

func RecordHallCallAssigned(car int) {
	hallCallsAssigned.WithLabelValues(carLabel(car)).Inc()
}

func RecordCarInfo(car int, floor int, pendingRequests int) {
	carFloor.WithLabelValues(carLabel(car)).Set(float64(floor))
	carPendingRequests.WithLabelValues(carLabel(car)).Set(float64(pendingRequests))
}

func RecordHardwareError(car int, kind string) {
	hardwareErrors.WithLabelValues(carLabel(car), kind).Inc()
}

func RecordCarExit(car int, result string) {
	carExits.WithLabelValues(carLabel(car), result).Inc()
}

func carLabel(car int) string {
	return strconv.Itoa(car)
}
