// Package metrics holds the Prometheus collectors for the identity core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hirehub_auth_logins_total",
		Help: "Login attempts by method and outcome",
	}, []string{"method", "outcome"})

	registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hirehub_auth_registrations_total",
		Help: "Registration attempts by method and outcome",
	}, []string{"method", "outcome"})

	signupLinksCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hirehub_signup_links_created_total",
		Help: "Signup links created, by invited role",
	}, []string{"role"})

	redemptions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hirehub_signup_link_redemptions_total",
		Help: "Signup link redemption attempts by outcome",
	}, []string{"outcome"})
)

func RecordLogin(method, outcome string) {
	logins.WithLabelValues(method, outcome).Inc()
}

func RecordRegistration(method, outcome string) {
	registrations.WithLabelValues(method, outcome).Inc()
}

func RecordSignupLinkCreated(role string) {
	signupLinksCreated.WithLabelValues(role).Inc()
}

// RecordRedemption takes "success" or the failure kind.
func RecordRedemption(outcome string) {
	redemptions.WithLabelValues(outcome).Inc()
}

// Outcome maps an error to the success/failure label.
func Outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
