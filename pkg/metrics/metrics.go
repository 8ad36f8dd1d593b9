package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the service. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Requests          *prometheus.CounterVec
	MetadataReloads   *prometheus.CounterVec
	ProjectedServices prometheus.Gauge
	MetadataEntities  prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "idp_rest_requests_total",
			Help: "HTTP requests served, by endpoint and status code",
		}, []string{"endpoint", "code"}),
		MetadataReloads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "idp_rest_metadata_reloads_total",
			Help: "Metadata snapshot reloads, by result",
		}, []string{"result"}),
		ProjectedServices: f.NewGauge(prometheus.GaugeOpts{
			Name: "idp_rest_projected_services",
			Help: "Number of services in the most recent services response",
		}),
		MetadataEntities: f.NewGauge(prometheus.GaugeOpts{
			Name: "idp_rest_metadata_entities",
			Help: "Entities in the current metadata snapshot",
		}),
	}
}

func (m *Metrics) ObserveRequest(endpoint string, code int) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
}

func (m *Metrics) ObserveReload(err error, entities int) {
	if m == nil {
		return
	}
	if err != nil {
		m.MetadataReloads.WithLabelValues("error").Inc()
		return
	}
	m.MetadataReloads.WithLabelValues("ok").Inc()
	m.MetadataEntities.Set(float64(entities))
}

func (m *Metrics) SetProjectedServices(n int) {
	if m == nil {
		return
	}
	m.ProjectedServices.Set(float64(n))
}
