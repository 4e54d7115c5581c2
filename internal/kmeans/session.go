package kmeans

// State is the lifecycle position of a Session.
type State int

const (
	Uninitialized State = iota
	Initialized
	Iterating
	Converged
	// Exhausted means the iteration cap was reached before convergence.
	Exhausted
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initialized:
		return "initialized"
	case Iterating:
		return "iterating"
	case Converged:
		return "converged"
	case Exhausted:
		return "exhausted"
	}
	return "unknown"
}

// Terminal reports whether further steps leave the session unchanged.
func (s State) Terminal() bool { return s == Converged || s == Exhausted }

// Result is a snapshot of a session. It shares no memory with the session.
type Result struct {
	Centroids []Point
	// Labels is nil until the first step has run.
	Labels    []int
	Converged bool
	Exhausted bool
	Iteration int
	// Inertia is the objective of Labels against Centroids, 0 before the first step.
	Inertia float64
	State   State
}

// Option configures a Session.
type Option func(*Session)

// WithTolerance sets the convergence tolerance.
func WithTolerance(tol float64) Option {
	return func(s *Session) { s.tol = tol }
}

// WithMaxIterations sets the iteration cap.
func WithMaxIterations(n int) Option {
	return func(s *Session) { s.maxIter = n }
}

// Session holds the evolving centroids and labels of one clustering run.
//
// A Session is not safe for concurrent use.
type Session struct {
	tol     float64
	maxIter int

	points    *PointSet
	k         int
	method    InitMethod
	initial   []Point
	centroids []Point
	labels    []int
	iteration int
	state     State
}

// NewSession returns an Uninitialized session.
func NewSession(opts ...Option) (*Session, error) {
	s := &Session{tol: DefaultTolerance, maxIter: DefaultMaxIterations}
	for _, opt := range opts {
		opt(s)
	}
	if s.tol < 0 {
		return nil, invalid("tolerance", "must not be negative, got %g", s.tol)
	}
	if s.maxIter <= 0 {
		return nil, invalid("max_iterations", "must be positive, got %d", s.maxIter)
	}
	return s, nil
}

// Start initializes centroids for ps and moves the session to Initialized.
// On error the session is left exactly as it was.
func (s *Session) Start(ps *PointSet, k int, spec InitSpec) (Result, error) {
	centroids, err := Initialize(ps, k, spec)
	if err != nil {
		return Result{}, err
	}
	s.points = ps
	s.k = k
	s.method = spec.Method
	s.initial = clonePoints(centroids)
	s.centroids = centroids
	s.labels = nil
	s.iteration = 0
	s.state = Initialized
	return s.Result(), nil
}

// Restart starts again on the point set kept from the previous Start.
func (s *Session) Restart(k int, spec InitSpec) (Result, error) {
	if s.points == nil {
		return Result{}, ErrEmptyDataset
	}
	return s.Start(s.points, k, spec)
}

// Step runs one assign/update/check cycle. Once the session is Converged or
// Exhausted, Step returns the same result without doing any work.
func (s *Session) Step() (Result, error) {
	if s.state == Uninitialized {
		return Result{}, ErrNotStarted
	}
	if !s.state.Terminal() {
		s.advance()
	}
	return s.Result(), nil
}

// RunToConvergence steps until the session is Converged or Exhausted.
func (s *Session) RunToConvergence() (Result, error) {
	if s.state == Uninitialized {
		return Result{}, ErrNotStarted
	}
	for !s.state.Terminal() {
		s.advance()
	}
	return s.Result(), nil
}

func (s *Session) advance() {
	labels := Assign(s.points, s.centroids)
	next := Update(s.points, labels, s.centroids)
	converged := HasConverged(s.centroids, next, s.tol)

	s.labels = labels
	s.centroids = next
	s.iteration++

	switch {
	case converged:
		s.state = Converged
	case s.iteration >= s.maxIter:
		s.state = Exhausted
	default:
		s.state = Iterating
	}
}

// Reset drops centroids, labels and the iteration counter. The point set is
// kept for Restart.
func (s *Session) Reset() {
	s.k = 0
	s.method = ""
	s.initial = nil
	s.centroids = nil
	s.labels = nil
	s.iteration = 0
	s.state = Uninitialized
}

// Result returns a snapshot of the current state.
func (s *Session) Result() Result {
	r := Result{
		Centroids: clonePoints(s.centroids),
		Converged: s.state == Converged,
		Exhausted: s.state == Exhausted,
		Iteration: s.iteration,
		State:     s.state,
	}
	if s.labels != nil {
		r.Labels = append([]int(nil), s.labels...)
		r.Inertia = Inertia(s.points, s.centroids, s.labels)
	}
	return r
}

func (s *Session) State() State { return s.state }
func (s *Session) K() int { return s.k }
func (s *Session) Method() InitMethod { return s.method }
func (s *Session) PointSet() *PointSet { return s.points }

// InitialCentroids returns a copy of the centroids chosen by the last Start.
func (s *Session) InitialCentroids() []Point { return clonePoints(s.initial) }

func (s *Session) Tolerance() float64 { return s.tol }
func (s *Session) MaxIterations() int { return s.maxIter }
