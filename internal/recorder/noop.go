package recorder

import "MarketDashboard/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordPriceTick(_ *model.PriceTick) error { return nil }
func (n *NoopRecorder) RecordPanelRefresh(_ *PanelRefresh) error { return nil }
func (n *NoopRecorder) RecordDatasetLoad(_ *DatasetLoad) error   { return nil }
func (n *NoopRecorder) Close() error                             { return nil }
