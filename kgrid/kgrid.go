// Package kgrid enumerates the reciprocal-lattice vectors of a cubic box
// and assigns each to a radial bin of |k|, producing the k-vector and bin
// lists consumed by the fourier package's reducers.
package kgrid

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidGrid = errors.New("invalid grid parameter")

// Grid holds every integer multiplier triplet within the per-axis bounds
// whose magnitude k0*|n| lies in (0, kmax], along with the radial bin each
// one falls in. Kvecs and Bins are parallel and safe to hand straight to
// fourier.(*PhaseTable).AccumulateSk.
type Grid struct {
	K0    float64
	Nmax  [3]int
	Kvecs [][3]int
	Bins  []int

	nbins  int
	dk     float64
	counts []int
}

// New enumerates the grid. nbins radial bins of width kmax/nbins cover
// (0, kmax]; the zero vector is excluded since forward scattering has no
// radial bin. Triplets whose magnitude exceeds kmax are dropped, so axes
// can be bounded generously without blowing up the k-vector count.
func New(k0 float64, nmax [3]int, nbins int, kmax float64) (*Grid, error) {
	if k0 <= 0 {
		return nil, fmt.Errorf("%w: k0 = %g", ErrInvalidGrid, k0)
	}
	if nbins <= 0 {
		return nil, fmt.Errorf("%w: nbins = %d", ErrInvalidGrid, nbins)
	}
	if kmax <= 0 {
		return nil, fmt.Errorf("%w: kmax = %g", ErrInvalidGrid, kmax)
	}
	for a := 0; a < 3; a++ {
		if nmax[a] < 0 {
			return nil, fmt.Errorf(
				"%w: nmax[%d] = %d", ErrInvalidGrid, a, nmax[a],
			)
		}
	}

	g := &Grid{
		K0: k0, Nmax: nmax,
		nbins:  nbins,
		dk:     kmax / float64(nbins),
		counts: make([]int, nbins),
	}

	for i1 := -nmax[0]; i1 <= nmax[0]; i1++ {
		for i2 := -nmax[1]; i2 <= nmax[1]; i2++ {
			for i3 := -nmax[2]; i3 <= nmax[2]; i3++ {
				if i1 == 0 && i2 == 0 && i3 == 0 {
					continue
				}
				k := k0 * math.Sqrt(float64(i1*i1+i2*i2+i3*i3))
				if k > kmax {
					continue
				}
				b := int(k / g.dk)
				if b == nbins { // k == kmax lands on the upper edge
					b = nbins - 1
				}
				g.Kvecs = append(g.Kvecs, [3]int{i1, i2, i3})
				g.Bins = append(g.Bins, b)
				g.counts[b]++
			}
		}
	}

	return g, nil
}

// NBins returns the number of radial bins.
func (g *Grid) NBins() int { return g.nbins }

// Counts returns the number of k-vectors assigned to each radial bin.
// Bins near the kmax cutoff or below k0 may be empty.
func (g *Grid) Counts() []int { return g.counts }

// BinCenters returns the |k| midpoint of each radial bin.
func (g *Grid) BinCenters() []float64 {
	centers := make([]float64, g.nbins)
	for b := range centers {
		centers[b] = (float64(b) + 0.5) * g.dk
	}
	return centers
}
