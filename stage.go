package hyperplatform

import "context"

// Stage is one subsystem the driver brings up and tears down. Term is only
// called after Init succeeded, and at most once per successful Init. A
// failing Init must release whatever it allocated before returning.
type Stage interface {
	Name() string
	Init(ctx context.Context) error
	Term(ctx context.Context)
}

type funcStage struct {
	name string
	init func(ctx context.Context) error
	term func(ctx context.Context)
}

// NewStage returns a Stage from a pair of funcs. A nil term is allowed.
func NewStage(name string, init func(ctx context.Context) error, term func(ctx context.Context)) Stage {
	return &funcStage{name: name, init: init, term: term}
}

func (s *funcStage) Name() string { return s.name }

func (s *funcStage) Init(ctx context.Context) error {
	if s.init == nil {
		return nil
	}
	return s.init(ctx)
}

func (s *funcStage) Term(ctx context.Context) {
	if s.term != nil {
		s.term(ctx)
	}
}
