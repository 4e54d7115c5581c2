package kmeans

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, opts ...Option) *Session {
	t.Helper()
	s, err := NewSession(opts...)
	require.NoError(t, err)
	return s
}

func TestSessionStepScenario(t *testing.T) {
	s := newTestSession(t)
	res, err := s.Start(squarePoints(t), 2, Manual([]Point{{0, 0}, {10, 0}}))
	require.NoError(t, err)
	assert.Equal(t, Initialized, res.State)
	assert.Equal(t, 0, res.Iteration)
	assert.Nil(t, res.Labels)

	res, err = s.Step()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 1, 1}, res.Labels)
	assert.Equal(t, []Point{{0, 0.5}, {10, 0.5}}, res.Centroids)
	assert.False(t, res.Converged)
	assert.Equal(t, Iterating, res.State)
	assert.Equal(t, 1, res.Iteration)

	res, err = s.Step()
	require.NoError(t, err)
	assert.Equal(t, []Point{{0, 0.5}, {10, 0.5}}, res.Centroids)
	assert.True(t, res.Converged)
	assert.Equal(t, Converged, res.State)
	assert.InDelta(t, 1.0, res.Inertia, 1e-12)
}

func TestSessionStepIdempotentAfterConvergence(t *testing.T) {
	s := newTestSession(t)
	_, err := s.Start(squarePoints(t), 2, Manual([]Point{{0, 0}, {10, 0}}))
	require.NoError(t, err)

	final, err := s.RunToConvergence()
	require.NoError(t, err)
	require.True(t, final.Converged)

	for range 3 {
		again, err := s.Step()
		require.NoError(t, err)
		assert.Equal(t, final.Centroids, again.Centroids)
		assert.Equal(t, final.Labels, again.Labels)
		assert.Equal(t, final.Iteration, again.Iteration)
	}
}

func TestSessionResultDoesNotAlias(t *testing.T) {
	s := newTestSession(t)
	_, err := s.Start(squarePoints(t), 2, Manual([]Point{{0, 0}, {10, 0}}))
	require.NoError(t, err)
	res, err := s.Step()
	require.NoError(t, err)

	res.Centroids[0][0] = 1234
	res.Labels[0] = 1
	again := s.Result()
	assert.Equal(t, Point{0, 0.5}, again.Centroids[0])
	assert.Equal(t, 0, again.Labels[0])
}

func TestSessionKEqualsN(t *testing.T) {
	ps, err := Generate(12, Seed(13))
	require.NoError(t, err)

	s := newTestSession(t)
	_, err = s.Start(ps, ps.Len(), Random(Seed(13)))
	require.NoError(t, err)

	res, err := s.RunToConvergence()
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.Zero(t, res.Inertia)
	assert.ElementsMatch(t, ps.Points(), res.Centroids)
	for i, l := range res.Labels {
		assert.Equal(t, ps.At(i), res.Centroids[l])
	}
}

func TestSessionRunToConvergence(t *testing.T) {
	ps, err := Generate(500, Seed(99))
	require.NoError(t, err)

	s := newTestSession(t)
	_, err = s.Start(ps, 5, KMeansPlusPlus(Seed(99)))
	require.NoError(t, err)

	res, err := s.RunToConvergence()
	require.NoError(t, err)
	assert.True(t, res.State.Terminal())
	assert.Len(t, res.Centroids, 5)
	assert.Len(t, res.Labels, ps.Len())
	assert.LessOrEqual(t, res.Iteration, DefaultMaxIterations)
}

func TestSessionRunMatchesStepping(t *testing.T) {
	ps, err := Generate(200, Seed(17))
	require.NoError(t, err)

	full := newTestSession(t)
	_, err = full.Start(ps, 4, Random(Seed(17)))
	require.NoError(t, err)
	want, err := full.RunToConvergence()
	require.NoError(t, err)

	stepped := newTestSession(t)
	_, err = stepped.Start(ps, 4, Random(Seed(17)))
	require.NoError(t, err)
	var got Result
	for !stepped.State().Terminal() {
		got, err = stepped.Step()
		require.NoError(t, err)
	}
	assert.Equal(t, want, got)
}

func TestSessionIterationCap(t *testing.T) {
	ps, err := Generate(400, Seed(1))
	require.NoError(t, err)

	s := newTestSession(t, WithMaxIterations(1), WithTolerance(0))
	_, err = s.Start(ps, 8, Random(Seed(1)))
	require.NoError(t, err)

	res, err := s.Step()
	require.NoError(t, err)
	assert.Equal(t, 1, res.Iteration)
	assert.False(t, res.Converged)
	assert.True(t, res.Exhausted)
	assert.Equal(t, Exhausted, res.State)

	again, err := s.Step()
	require.NoError(t, err)
	assert.Equal(t, res, again)
}

func TestSessionStartRejectsInvalid(t *testing.T) {
	ps := squarePoints(t)
	cases := []struct {
		name string
		k    int
		spec InitSpec
	}{
		{"k zero", 0, Random(nil)},
		{"k above n", 5, Random(nil)},
		{"manual count", 2, Manual([]Point{{0, 0}, {1, 1}, {2, 2}})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestSession(t)
			_, err := s.Start(ps, tc.k, tc.spec)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Equal(t, Uninitialized, s.State())
			assert.Nil(t, s.PointSet())

			_, err = s.Step()
			assert.ErrorIs(t, err, ErrNotStarted)
		})
	}
}

func TestSessionFailedRestartKeepsState(t *testing.T) {
	s := newTestSession(t)
	_, err := s.Start(squarePoints(t), 2, Manual([]Point{{0, 0}, {10, 0}}))
	require.NoError(t, err)
	before, err := s.Step()
	require.NoError(t, err)

	_, err = s.Restart(9, Random(nil))
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Equal(t, before, s.Result())
}

func TestSessionReset(t *testing.T) {
	ps := squarePoints(t)
	s := newTestSession(t)
	_, err := s.Start(ps, 2, Random(Seed(1)))
	require.NoError(t, err)
	_, err = s.Step()
	require.NoError(t, err)

	s.Reset()
	assert.Equal(t, Uninitialized, s.State())
	assert.Nil(t, s.Result().Centroids)
	assert.Zero(t, s.Result().Iteration)
	assert.Same(t, ps, s.PointSet())

	_, err = s.RunToConvergence()
	assert.ErrorIs(t, err, ErrNotStarted)

	res, err := s.Restart(1, Random(Seed(2)))
	require.NoError(t, err)
	assert.Equal(t, Initialized, res.State)
	assert.Len(t, res.Centroids, 1)
}

func TestSessionInitialCentroids(t *testing.T) {
	s := newTestSession(t)
	assert.Nil(t, s.InitialCentroids())

	_, err := s.Start(squarePoints(t), 2, Manual([]Point{{0, 0}, {10, 0}}))
	require.NoError(t, err)
	_, err = s.Step()
	require.NoError(t, err)
	initial := s.InitialCentroids()
	assert.Equal(t, []Point{{0, 0}, {10, 0}}, initial)

	initial[0][0] = 7
	assert.Equal(t, Point{0, 0}, s.InitialCentroids()[0])

	s.Reset()
	assert.Nil(t, s.InitialCentroids())
}

func TestSessionRestartWithoutPoints(t *testing.T) {
	s := newTestSession(t)
	_, err := s.Restart(1, Random(nil))
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func TestNewSessionRejectsOptions(t *testing.T) {
	_, err := NewSession(WithTolerance(-1))
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = NewSession(WithMaxIterations(0))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "converged", Converged.String())
	assert.Equal(t, "exhausted", Exhausted.String())
	assert.Equal(t, "unknown", State(42).String())
}
