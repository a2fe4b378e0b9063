package inventory

// Recorder señales operativas de los casos de uso de inventario (lo implementa *observability.Metrics).
type Recorder interface {
	SaleLinePending()
}

type nopRecorder struct{}

func (nopRecorder) SaleLinePending() {}

func recorderOrNop(r Recorder) Recorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}
