package ports

// WorkflowMetrics contadores del flujo de inventario.
type WorkflowMetrics interface {
	POTransition(from, to string)
	ReceiptRecorded(poStatus string, lines int)
	MovementRecorded(movementType, source string, quantity int64)
	DistributionTransition(from, to string)
}

// NopMetrics implementación vacía para tests y arranques sin /metrics.
type NopMetrics struct{}

func (NopMetrics) POTransition(string, string)            {}
func (NopMetrics) ReceiptRecorded(string, int)            {}
func (NopMetrics) MovementRecorded(string, string, int64) {}
func (NopMetrics) DistributionTransition(string, string)  {}
