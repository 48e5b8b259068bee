package pipeline

import (
	"github.com/ppiankov/fundus/internal/filter"
	"github.com/ppiankov/fundus/internal/model"
	"github.com/ppiankov/fundus/internal/transform"
)

// StageKind tags a pipeline stage
type StageKind string

const (
	StageFilter    StageKind = "filter"
	StageTransform StageKind = "transform"
)

// Stage is either a filter or a transform
type Stage struct {
	kind      StageKind
	filter    filter.Filter
	transform transform.Transform
}

// FilterStage wraps a filter as a pipeline stage
func FilterStage(f filter.Filter) Stage {
	return Stage{kind: StageFilter, filter: f}
}

// TransformStage wraps a transform as a pipeline stage
func TransformStage(t transform.Transform) Stage {
	return Stage{kind: StageTransform, transform: t}
}

// Kind returns the stage tag
func (s Stage) Kind() StageKind { return s.kind }

// Name returns the wrapped filter or transform name
func (s Stage) Name() string {
	switch s.kind {
	case StageFilter:
		return s.filter.Name()
	case StageTransform:
		return s.transform.Name()
	}
	return ""
}

// apply threads r through the stage. A false keep means the record was excluded.
func (s Stage) apply(r model.Record) (model.Record, bool, error) {
	switch s.kind {
	case StageFilter:
		return r, s.filter.Apply(r), nil
	case StageTransform:
		return s.transform.Apply(r)
	}
	return r, true, nil
}

func (s Stage) valid() bool {
	switch s.kind {
	case StageFilter:
		return s.filter != nil
	case StageTransform:
		return s.transform != nil
	}
	return false
}
