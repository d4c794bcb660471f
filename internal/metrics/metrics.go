// Package metrics exposes Prometheus counters for assignment lifecycle events.
package metrics

import (
	"alcyxob/plan-tracker/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder receives lifecycle events from the services.
type Recorder interface {
	AssignmentCreated(kind domain.PlanKind)
	AssignmentSuperseded(kind domain.PlanKind)
	AssignmentCompleted(kind domain.PlanKind)
	UnitReported(kind domain.PlanKind)
}

// Prometheus implements Recorder with labelled counters.
type Prometheus struct {
	created    *prometheus.CounterVec
	superseded *prometheus.CounterVec
	completed  *prometheus.CounterVec
	reported   *prometheus.CounterVec
}

// NewPrometheus creates the counters and registers them with reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	newCounter := func(name, help string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plan_tracker",
			Name:      name,
			Help:      help,
		}, []string{"kind"})
	}

	p := &Prometheus{
		created:    newCounter("assignments_created_total", "Assignments created, by plan kind."),
		superseded: newCounter("assignments_superseded_total", "Current assignments retired by a newer one."),
		completed:  newCounter("assignments_completed_total", "Assignments that reached completion."),
		reported:   newCounter("units_reported_total", "Completed training units reported."),
	}
	reg.MustRegister(p.created, p.superseded, p.completed, p.reported)
	return p
}

func (p *Prometheus) AssignmentCreated(kind domain.PlanKind) {
	p.created.WithLabelValues(string(kind)).Inc()
}

func (p *Prometheus) AssignmentSuperseded(kind domain.PlanKind) {
	p.superseded.WithLabelValues(string(kind)).Inc()
}

func (p *Prometheus) AssignmentCompleted(kind domain.PlanKind) {
	p.completed.WithLabelValues(string(kind)).Inc()
}

func (p *Prometheus) UnitReported(kind domain.PlanKind) {
	p.reported.WithLabelValues(string(kind)).Inc()
}

// Nop discards every event.
type Nop struct{}

func (Nop) AssignmentCreated(domain.PlanKind)    {}
func (Nop) AssignmentSuperseded(domain.PlanKind) {}
func (Nop) AssignmentCompleted(domain.PlanKind)  {}
func (Nop) UnitReported(domain.PlanKind)         {}
