// Package metrics expone contadores Prometheus de los flujos de compra, recepción, movimientos y
// distribución, más la instrumentación de los trabajos del worker.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhoicas/Apothecary-api/internal/application/ports"
)

var _ ports.WorkflowMetrics = (*Workflow)(nil)

// Workflow implementa ports.WorkflowMetrics.
type Workflow struct {
	poTransitions   *prometheus.CounterVec
	receipts        *prometheus.CounterVec
	receiptLines    prometheus.Counter
	movements       *prometheus.CounterVec
	movementUnits   *prometheus.CounterVec
	distTransitions *prometheus.CounterVec
}

var (
	defaultOnce     sync.Once
	defaultWorkflow *Workflow
)

// NewWorkflow registra los colectores en registerer. Con nil usa el registro por defecto una sola vez.
func NewWorkflow(registerer prometheus.Registerer) *Workflow {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultWorkflow = buildWorkflow(prometheus.DefaultRegisterer)
		})
		return defaultWorkflow
	}
	return buildWorkflow(registerer)
}

func buildWorkflow(reg prometheus.Registerer) *Workflow {
	w := &Workflow{
		poTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "apothecary",
			Name:      "purchase_order_transitions_total",
			Help:      "Cambios de estado de órdenes de compra.",
		}, []string{"from", "to"}),
		receipts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "apothecary",
			Name:      "purchase_receipts_total",
			Help:      "Recepciones registradas por estado resultante de la orden.",
		}, []string{"po_status"}),
		receiptLines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "apothecary",
			Name:      "purchase_receipt_lines_total",
			Help:      "Líneas recibidas.",
		}),
		movements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "apothecary",
			Name:      "stock_movements_total",
			Help:      "Movimientos de stock por tipo y origen.",
		}, []string{"type", "source"}),
		movementUnits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "apothecary",
			Name:      "stock_movement_units_total",
			Help:      "Unidades movidas por tipo y origen.",
		}, []string{"type", "source"}),
		distTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "apothecary",
			Name:      "distribution_transitions_total",
			Help:      "Cambios de estado de distribuciones.",
		}, []string{"from", "to"}),
	}
	reg.MustRegister(w.poTransitions, w.receipts, w.receiptLines, w.movements, w.movementUnits, w.distTransitions)
	return w
}

func (w *Workflow) POTransition(from, to string) {
	w.poTransitions.WithLabelValues(from, to).Inc()
}

func (w *Workflow) ReceiptRecorded(poStatus string, lines int) {
	w.receipts.WithLabelValues(poStatus).Inc()
	w.receiptLines.Add(float64(lines))
}

func (w *Workflow) MovementRecorded(movType, source string, quantity int64) {
	w.movements.WithLabelValues(movType, source).Inc()
	w.movementUnits.WithLabelValues(movType, source).Add(float64(quantity))
}

func (w *Workflow) DistributionTransition(from, to string) {
	w.distTransitions.WithLabelValues(from, to).Inc()
}

// Jobs colectores de los trabajos en segundo plano.
type Jobs struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	alerts   *prometheus.CounterVec
}

// NewJobs registra los colectores del worker.
func NewJobs(reg prometheus.Registerer) *Jobs {
	j := &Jobs{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "apothecary",
			Name:      "job_runs_total",
			Help:      "Ejecuciones de trabajos por resultado.",
		}, []string{"job", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "apothecary",
			Name:      "job_duration_seconds",
			Help:      "Duración de cada ejecución.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"job"}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "apothecary",
			Name:      "inventory_alerts_total",
			Help:      "Avisos generados por el escaneo de inventario.",
		}, []string{"kind"}),
	}
	reg.MustRegister(j.runs, j.duration, j.alerts)
	return j
}

// Tracker mide una ejecución.
type Tracker struct {
	jobs  *Jobs
	job   string
	start time.Time
}

// Track inicia la medición de job.
func (j *Jobs) Track(job string) *Tracker {
	return &Tracker{jobs: j, job: job, start: time.Now()}
}

// End registra resultado y duración y devuelve err sin modificar.
func (t *Tracker) End(err error) error {
	if t == nil || t.jobs == nil {
		return err
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	t.jobs.runs.WithLabelValues(t.job, status).Inc()
	t.jobs.duration.WithLabelValues(t.job).Observe(time.Since(t.start).Seconds())
	return err
}

// AddAlerts suma avisos de un tipo (low_stock, expiry).
func (j *Jobs) AddAlerts(kind string, n int) {
	if j == nil || n <= 0 {
		return
	}
	j.alerts.WithLabelValues(kind).Add(float64(n))
}
