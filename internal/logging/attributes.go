package logging

// Attribute keys shared by training, inference and the server so log lines
// can be filtered consistently.
const (
	ModelTypeKey = "model.type"
	PhaseKey     = "ml.phase" // "training", "evaluation", "inference"

	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"
	ClassesKey  = "data.classes"

	DurationMsKey = "perf.duration_ms"
	AccuracyKey   = "perf.accuracy"

	DiseaseKey   = "prediction.disease"
	UrgencyKey   = "prediction.urgency"
	ErrorKindKey = "prediction.error_kind"

	PathKey = "path"
)
