package recorder

import "Finansle/internal/model"

// Recorder publishes merged stock records.
type Recorder interface {
	// Record publishes the stock of the day.
	Record(rec *model.StockRecord) error
	// RecordAll publishes the records of a batch run.
	RecordAll(recs []*model.StockRecord) error
	Close() error
}
