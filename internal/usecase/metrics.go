package usecase

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	interactionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collabfund_interaction_total",
		Help: "Committed relationship transitions by kind and outcome",
	}, []string{"kind", "outcome"})

	interactionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collabfund_interaction_rejected_total",
		Help: "Relationship actions rejected by the transition table",
	}, []string{"kind"})

	duplicateRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collabfund_interaction_duplicate_retries_total",
		Help: "Transactions retried after a concurrent insert of the same relationship",
	}, []string{"kind"})

	donationAmount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collabfund_donation_amount_total",
		Help: "Sum of accepted donation amounts",
	})
)
