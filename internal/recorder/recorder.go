package recorder

import "MarketDashboard/internal/model"

// PanelRefresh records one panel fetch of the dashboard.
type PanelRefresh struct {
	Panel      string
	OK         bool
	Err        string
	DurationMS int64
}

// DatasetLoad records the outcome of an indicator dataset load.
type DatasetLoad struct {
	Ticker  string
	Period  string
	Outcome string // "installed", "superseded" or "failed"
	Kinds   string // comma separated kinds present in the dataset
	Err     string
}

// Recorder persists dashboard history for later analysis.
type Recorder interface {
	RecordPriceTick(tick *model.PriceTick) error
	RecordPanelRefresh(evt *PanelRefresh) error
	RecordDatasetLoad(evt *DatasetLoad) error
	Close() error
}
