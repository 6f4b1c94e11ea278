package stage

import "time"

// Name identifies a pipeline stage
type Name string

// Stages in execution order
const (
	Import      Name = "import"
	Profile     Name = "profile"
	Impute      Name = "impute"
	Standardize Name = "standardize"
	Visualize   Name = "visualize"
	Export      Name = "export"
)

// All returns every stage in execution order
func All() []Name {
	return []Name{Import, Profile, Impute, Standardize, Visualize, Export}
}

// Status is the outcome of a stage
type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Timing records how long a stage took and how it ended
type Timing struct {
	Stage    Name          `json:"stage"`
	Status   Status        `json:"status"`
	Duration time.Duration `json:"duration_ns"`
}
