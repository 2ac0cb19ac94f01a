// Package fourier computes Fourier-space density amplitudes and static
// structure factors for particle configurations.
//
// The expensive part of evaluating rho(k) = sum_j exp(i k.r_j) over many
// k-vectors is the transcendental calls. Since each k-vector is an integer
// triplet (i1, i2, i3) of multiples of one elementary step k0, the 3D phase
// factorizes into three 1D phase factors, and each 1D phase at multiplier n
// is the n-th power of the phase at multiplier 1. PhaseTable caches these
// powers so every amplitude reduces to complex multiplications and adds.
package fourier

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNonPositiveStep means the elementary wavevector step k0 was <= 0.
	ErrNonPositiveStep = errors.New("non-positive wavevector step")
	// ErrInvalidBounds means a multiplier bound was negative or a k-vector
	// component fell outside the table's multiplier range.
	ErrInvalidBounds = errors.New("multiplier out of bounds")
	// ErrLengthMismatch means two parallel input sequences disagreed in
	// length, or a bin index fell outside the output histogram.
	ErrLengthMismatch = errors.New("length mismatch")
)

// PhaseTable caches exp(i*n*k0*x) for every particle, axis, and signed
// multiplier n in [-nmax[axis], +nmax[axis]]. It is built once per
// configuration and read by AccumulateSk and Amplitudes.
type PhaseTable struct {
	n      int // particle count
	nmax   [3]int
	stride int // table width per (particle, axis) row: 2*off + 1
	off    int // index of multiplier 0 within a row
	expo   []complex128
}

// NewPhaseTable builds the phase factor cache for one configuration. k0 is
// the elementary wavevector step shared by all axes and nmax bounds the
// multiplier range per axis. Only one Sincos call is made per particle per
// axis: higher multipliers come from the recurrence
// expo[n] = expo[n-1]*expo[1], and negative multipliers are the conjugates
// of the positive ones.
func NewPhaseTable(
	k0 float64, nmax [3]int, pos [][3]float64,
) (*PhaseTable, error) {
	if k0 <= 0 {
		return nil, fmt.Errorf("%w: k0 = %g", ErrNonPositiveStep, k0)
	}
	top := 0
	for a := 0; a < 3; a++ {
		if nmax[a] < 0 {
			return nil, fmt.Errorf(
				"%w: nmax[%d] = %d", ErrInvalidBounds, a, nmax[a],
			)
		}
		if nmax[a] > top {
			top = nmax[a]
		}
	}

	t := &PhaseTable{
		n:      len(pos),
		nmax:   nmax,
		stride: 2*top + 1,
		off:    top,
		expo:   make([]complex128, len(pos)*3*(2*top+1)),
	}

	for p := range pos {
		for a := 0; a < 3; a++ {
			row := t.row(p, a)
			row[t.off] = 1
			if nmax[a] == 0 {
				continue
			}

			s, c := math.Sincos(k0 * pos[p][a])
			e1 := complex(c, s)
			row[t.off+1] = e1
			for n := 2; n <= nmax[a]; n++ {
				row[t.off+n] = row[t.off+n-1] * e1
			}
			for n := 1; n <= nmax[a]; n++ {
				e := row[t.off+n]
				row[t.off-n] = complex(real(e), -imag(e))
			}
		}
	}

	return t, nil
}

// Len returns the number of particles the table was built from.
func (t *PhaseTable) Len() int { return t.n }

// Nmax returns the per-axis multiplier bounds the table was built with.
func (t *PhaseTable) Nmax() [3]int { return t.nmax }

func (t *PhaseTable) row(p, a int) []complex128 {
	i := (p*3 + a) * t.stride
	return t.expo[i : i+t.stride]
}

func (t *PhaseTable) at(p, a, n int) complex128 {
	return t.expo[(p*3+a)*t.stride+t.off+n]
}

// amplitude computes rho(k) = sum_p exp(i k.r_p) by separability: the 3D
// phase is the product of the three cached 1D phases.
func (t *PhaseTable) amplitude(kvec [3]int) complex128 {
	rho := complex(0, 0)
	for p := 0; p < t.n; p++ {
		base := p * 3 * t.stride
		i1 := base + t.off + kvec[0]
		i2 := base + t.stride + t.off + kvec[1]
		i3 := base + 2*t.stride + t.off + kvec[2]
		rho += t.expo[i1] * t.expo[i2] * t.expo[i3]
	}
	return rho
}

func (t *PhaseTable) checkKvecs(kvecs [][3]int) error {
	for i, kvec := range kvecs {
		for a := 0; a < 3; a++ {
			if kvec[a] < -t.nmax[a] || kvec[a] > t.nmax[a] {
				return fmt.Errorf(
					"%w: k-vector %d has component %d = %d, but nmax[%d] = %d",
					ErrInvalidBounds, i, a, kvec[a], a, t.nmax[a],
				)
			}
		}
	}
	return nil
}

// AccumulateSk adds |rho(k)|^2 into sk[bins[i]] for every k-vector
// kvecs[i]. sk is caller-owned and only ever added to: zero it for a fresh
// average and normalize it afterwards (AccumulateSk does neither). All
// inputs are checked before sk is touched, so on error sk is unmodified.
func (t *PhaseTable) AccumulateSk(
	kvecs [][3]int, bins []int, sk []float64,
) error {
	if len(kvecs) != len(bins) {
		return fmt.Errorf(
			"%w: %d k-vectors, but %d bin assignments",
			ErrLengthMismatch, len(kvecs), len(bins),
		)
	}
	if err := t.checkKvecs(kvecs); err != nil {
		return err
	}
	for i, b := range bins {
		if b < 0 || b >= len(sk) {
			return fmt.Errorf(
				"%w: k-vector %d assigned to bin %d, but the histogram "+
					"has %d bins", ErrLengthMismatch, i, b, len(sk),
			)
		}
	}

	for i, kvec := range kvecs {
		rho := t.amplitude(kvec)
		sk[bins[i]] += real(rho)*real(rho) + imag(rho)*imag(rho)
	}
	return nil
}

// Amplitudes overwrites rho[i] with the complex amplitude rho(kvecs[i]).
// Unlike AccumulateSk it keeps the phase, which is what consumers
// correlating amplitudes between configurations need. rho must have the
// same length as kvecs.
func (t *PhaseTable) Amplitudes(kvecs [][3]int, rho []complex128) error {
	if len(rho) != len(kvecs) {
		return fmt.Errorf(
			"%w: %d k-vectors, but the output has room for %d amplitudes",
			ErrLengthMismatch, len(kvecs), len(rho),
		)
	}
	if err := t.checkKvecs(kvecs); err != nil {
		return err
	}

	for i, kvec := range kvecs {
		rho[i] = t.amplitude(kvec)
	}
	return nil
}
