package report

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/facmaker/facmaker/sim"
)

const namespace = "facmaker"

// Metrics holds the end-of-run gauges of one simulation. It uses its own registry so
// repeated runs in one process never collide.
type Metrics struct {
	Registry *prometheus.Registry

	TicksSimulated    prometheus.Gauge
	OperationsRunning prometheus.Gauge
	ItemFinal         *prometheus.GaugeVec
	ItemMax           *prometheus.GaugeVec
	MachineDispatches *prometheus.GaugeVec
	MachineBusyTicks  *prometheus.GaugeVec
	MachineUtil       *prometheus.GaugeVec
}

// NewMetrics registers the run gauges on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		TicksSimulated: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ticks_simulated",
			Help:      "Horizon of the simulation run",
		}),
		OperationsRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "operations_in_flight",
			Help:      "Machine operations still running at the horizon",
		}),
		ItemFinal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "item",
			Name:      "final_quantity",
			Help:      "Stock of the item at the horizon",
		}, []string{"item", "name", "role"}),
		ItemMax: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "item",
			Name:      "max_quantity",
			Help:      "Largest stock of the item during the run",
		}, []string{"item", "name", "role"}),
		MachineDispatches: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "machine",
			Name:      "dispatches",
			Help:      "Operations started by the machine",
		}, []string{"machine", "name"}),
		MachineBusyTicks: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "machine",
			Name:      "busy_ticks",
			Help:      "Ticks the machine spent operating",
		}, []string{"machine", "name"}),
		MachineUtil: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "machine",
			Name:      "utilization_ratio",
			Help:      "Busy ticks divided by the horizon",
		}, []string{"machine", "name"}),
	}
	m.Registry.MustRegister(
		m.TicksSimulated,
		m.OperationsRunning,
		m.ItemFinal,
		m.ItemMax,
		m.MachineDispatches,
		m.MachineBusyTicks,
		m.MachineUtil,
	)
	return m
}

// Observe sets every gauge from s.
func (m *Metrics) Observe(s *Summary) {
	m.TicksSimulated.Set(float64(s.Horizon))
	m.OperationsRunning.Set(float64(s.InFlight))
	for _, it := range s.Items {
		labels := prometheus.Labels{"item": idLabel(it.ID), "name": it.Name, "role": it.Role}
		m.ItemFinal.With(labels).Set(float64(it.Final))
		m.ItemMax.With(labels).Set(float64(it.Max))
	}
	for _, mc := range s.Machines {
		labels := prometheus.Labels{"machine": idLabel(mc.ID), "name": mc.Name}
		m.MachineDispatches.With(labels).Set(float64(mc.Dispatches))
		m.MachineBusyTicks.With(labels).Set(float64(mc.BusyTicks))
		util, _ := mc.Utilization.Float64()
		m.MachineUtil.With(labels).Set(util)
	}
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}

func idLabel(id sim.ID) string {
	return strconv.FormatUint(uint64(id), 10)
}
