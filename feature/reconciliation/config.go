package reconciliation

// Config holds configuration for the reconciliation engine.
type Config struct {
	// Workers is the number of concurrent run executors.
	Workers int `mapstructure:"workers" default:"1"`
	// QueueSize is the capacity of the pending-run queue.
	QueueSize int `mapstructure:"queue_size" default:"64"`
	// ArchiveReports enables uploading a JSON report artifact to object
	// storage when a run completes.
	ArchiveReports bool `mapstructure:"archive_reports" default:"false"`
}
