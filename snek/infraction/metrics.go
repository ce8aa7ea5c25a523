package infraction

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var appliedCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "snek_infractions_applied_total",
	Help: "Number of infractions applied, by type and outcome",
}, []string{"type", "status"})

var pardonedCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "snek_infractions_pardoned_total",
	Help: "Number of pardons attempted, by type and outcome",
}, []string{"type", "status"})

var notificationCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "snek_infraction_notifications_total",
	Help: "Number of infraction and pardon notices attempted, by type and delivery",
}, []string{"type", "delivered"})
