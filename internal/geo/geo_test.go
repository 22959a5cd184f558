package geo

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// Northern corridor: Mombasa -> Nairobi -> Nakuru -> Eldoret -> Busia -> Kampala.
var northernCorridor = []Point{
	{Lat: -4_043_500, Lng: 39_668_200},
	{Lat: -1_286_389, Lng: 36_817_222},
	{Lat: -289_722, Lng: 36_066_667},
	{Lat: 518_056, Lng: 35_269_722},
	{Lat: 460_000, Lng: 34_110_000},
	{Lat: 313_733, Lng: 32_582_192},
}

func randomPoint(r *rand.Rand) Point {
	return Point{
		Lat: r.Int63n(2*maxLatitude+1) - maxLatitude,
		Lng: r.Int63n(2*maxLongitude+1) - maxLongitude,
	}
}

// localPoint returns a point within ~2 degrees of the origin so that short
// segments and nearby points are exercised as well as global ones.
func localPoint(r *rand.Rand, origin Point) Point {
	return Point{
		Lat: origin.Lat + r.Int63n(4_000_001) - 2_000_000,
		Lng: origin.Lng + r.Int63n(4_000_001) - 2_000_000,
	}
}

func TestDistance_KnownValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b Point
		want uint32
	}{
		{"same point", Point{}, Point{}, 0},
		{"nine micro-degrees east", Point{}, Point{Lng: 9}, 1},
		{"just inside one kilometre", Point{}, Point{Lng: 8_983}, 999},
		{"nine thousand micro-degrees east", Point{}, Point{Lng: 9_000}, 1_001},
		{"one degree north", Point{}, Point{Lat: MicroDegrees}, 111_320},
		{"3-4-5 triangle", Point{}, Point{Lat: 30_000, Lng: 40_000}, 5_565},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Distance(tt.a, tt.b))
		})
	}
}

func TestDistance_Symmetric(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewSource(42))
	for i := 0; i < 2_000; i++ {
		a, b := randomPoint(r), randomPoint(r)
		require.Equal(t, Distance(a, b), Distance(b, a), "a=%+v b=%+v", a, b)
	}
}

func TestDistance_ZeroForSamePoint(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewSource(7))
	for i := 0; i < 1_000; i++ {
		a := randomPoint(r)
		require.Zero(t, Distance(a, a))
	}
}

func TestPointToSegmentDistance_WithinEndpointBound(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewSource(99))
	origin := Point{Lat: -1_286_389, Lng: 36_817_222}
	for i := 0; i < 3_000; i++ {
		var p, s, e Point
		if i%2 == 0 {
			p, s, e = randomPoint(r), randomPoint(r), randomPoint(r)
		} else {
			p, s, e = localPoint(r, origin), localPoint(r, origin), localPoint(r, origin)
		}
		got := PointToSegmentDistance(p, s, e)
		// One meter of slack for the truncated projection.
		bound := max(Distance(p, s), Distance(p, e)) + 1
		require.LessOrEqual(t, got, bound, "p=%+v s=%+v e=%+v", p, s, e)
	}
}

func TestPointToSegmentDistance_DegenerateSegment(t *testing.T) {
	t.Parallel()

	s := Point{Lat: 1_000, Lng: 2_000}
	p := Point{Lat: 10_000, Lng: 20_000}
	require.Equal(t, Distance(p, s), PointToSegmentDistance(p, s, s))
}

func TestPointToSegmentDistance_ClampsToEndpoints(t *testing.T) {
	t.Parallel()

	s := Point{Lat: 0, Lng: 0}
	e := Point{Lat: 0, Lng: 100_000}

	// Beyond the end of the segment the closest point is the endpoint.
	beyond := Point{Lat: 0, Lng: 150_000}
	require.Equal(t, Distance(beyond, e), PointToSegmentDistance(beyond, s, e))

	// Before the start as well.
	before := Point{Lat: 0, Lng: -50_000}
	require.Equal(t, Distance(before, s), PointToSegmentDistance(before, s, e))

	// Perpendicular to the middle.
	above := Point{Lat: 10_000, Lng: 50_000}
	require.Equal(t, uint32(1_113), PointToSegmentDistance(above, s, e))
}

func TestPointToSegmentDistance_MeasuresToProjectedPoint(t *testing.T) {
	t.Parallel()

	s := Point{Lat: 0, Lng: 0}
	e := Point{Lat: 30_000, Lng: 70_000}
	p := Point{Lat: 40_000, Lng: 10_000}

	dx, dy := e.Lng-s.Lng, e.Lat-s.Lat
	tp := projection((p.Lng-s.Lng)*dx+(p.Lat-s.Lat)*dy, dx*dx+dy*dy)
	closest := Point{Lat: s.Lat + dy*tp/ProjectionScale, Lng: s.Lng + dx*tp/ProjectionScale}

	require.Equal(t, Distance(p, closest), PointToSegmentDistance(p, s, e))
}

func TestPathDistance_NorthernCorridor(t *testing.T) {
	t.Parallel()

	near := Point{Lat: -2_729_519, Lng: 38_180_262}
	far := Point{Lat: -3_181_539, Lng: 37_743_124}

	require.Equal(t, uint32(9_999), PathDistance(near, northernCorridor))
	require.Equal(t, uint32(79_999), PathDistance(far, northernCorridor))
	require.Zero(t, PathDistance(northernCorridor[1], northernCorridor))
}

func TestPathDistance_ShortPaths(t *testing.T) {
	t.Parallel()

	p := Point{Lat: 10, Lng: 10}
	require.Equal(t, uint32(math.MaxUint32), PathDistance(p, nil))
	require.Equal(t, Distance(p, Point{}), PathDistance(p, []Point{{}}))
}

func TestPointInPolygon(t *testing.T) {
	t.Parallel()

	square := []Point{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 1_000_000},
		{Lat: 1_000_000, Lng: 1_000_000},
		{Lat: 1_000_000, Lng: 0},
	}
	triangle := []Point{
		{Lat: 0, Lng: 0},
		{Lat: 2_000_000, Lng: 1_000_000},
		{Lat: 0, Lng: 2_000_000},
	}

	tests := []struct {
		name string
		ring []Point
		p    Point
		want bool
	}{
		{"square centre", square, Point{Lat: 500_000, Lng: 500_000}, true},
		{"square outside east", square, Point{Lat: 500_000, Lng: 1_500_000}, false},
		{"square outside south", square, Point{Lat: -1, Lng: 500_000}, false},
		{"triangle inside", triangle, Point{Lat: 500_000, Lng: 1_000_000}, true},
		{"triangle outside corner", triangle, Point{Lat: 1_900_000, Lng: 100_000}, false},
		{"degenerate ring", square[:2], Point{Lat: 500_000, Lng: 500_000}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, PointInPolygon(tt.p, tt.ring))
		})
	}
}

func TestPointValid(t *testing.T) {
	t.Parallel()

	require.True(t, Point{Lat: 90_000_000, Lng: -180_000_000}.Valid())
	require.False(t, Point{Lat: 90_000_001}.Valid())
	require.False(t, Point{Lng: 180_000_001}.Valid())
}

func TestIsqrt(t *testing.T) {
	t.Parallel()

	for _, n := range []uint64{0, 1, 2, 3, 4, 15, 16, 17, 99, 100, 1 << 40, math.MaxUint32, math.MaxUint64} {
		root := isqrt(n)
		require.LessOrEqual(t, root*root, n, "n=%d", n)
		next := root + 1
		if hi, lo := mul(next, next); hi == 0 {
			require.Greater(t, lo, n, "n=%d", n)
		}
	}
}

func mul(a, b uint64) (uint64, uint64) {
	if a != 0 && b > math.MaxUint64/a {
		return 1, 0
	}
	return 0, a * b
}
