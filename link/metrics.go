package link

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robertof/go-keetronics-client/utils"
)

var (
	attemptsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "keetronics_link_connection_attempts_total",
	})
	failuresCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "keetronics_link_connection_failures_total",
	}, []string{"reason"})
	notificationsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "keetronics_link_notifications_total",
	})
	stateGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "keetronics_link_state",
		Help: "1 for the current connection state, 0 otherwise.",
	}, []string{"state"})
)

func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(
		attemptsCounter,
		failuresCounter,
		notificationsCounter,
		stateGauge,
	)
}

func recordState(s State) {
	for _, st := range allStates {
		v := 0.0
		if st == s {
			v = 1
		}

		stateGauge.WithLabelValues(st.String()).Set(v)
	}
}

var failureReasons = map[error]string{
	ErrCharacteristicNotFound: "characteristic_not_found",
	ErrDescriptorNotFound:     "descriptor_not_found",
	ErrTransportDisconnected:  "disconnected",
	ErrTransportDisabled:      "transport_disabled",
}

func failureReason(err error) string {
	if err == nil {
		return "none"
	}

	known, ok := utils.FirstMatch(err,
		ErrCharacteristicNotFound, ErrDescriptorNotFound, ErrTransportDisconnected, ErrTransportDisabled)

	if !ok {
		return "transport_error"
	}

	return failureReasons[known]
}
