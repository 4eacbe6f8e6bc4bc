package recorder

import "Finansle/internal/model"

// NoopRecorder is a no-op implementation used for dry runs.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) Record(_ *model.StockRecord) error      { return nil }
func (n *NoopRecorder) RecordAll(_ []*model.StockRecord) error { return nil }
func (n *NoopRecorder) Close() error                           { return nil }
