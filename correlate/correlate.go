// Package correlate drives the static structure factor calculation: it
// streams configurations out of a trajectory, builds a phase table per
// configuration, reduces into an accumulated radial histogram, and writes
// the normalized S(k) at the end.
package correlate

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"runtime"

	"github.com/pelletier/go-toml"

	"github.com/mfrenkel/kspace/fourier"
	"github.com/mfrenkel/kspace/kgrid"
	"github.com/mfrenkel/kspace/logging"
	"github.com/mfrenkel/kspace/traj"
)

// SK holds the parameters parsed from a TOML configuration file plus the
// running state of the average. Instance it through New. CfgStart must be
// lower than CfgEnd.
type SK struct {
	FileIn  string `toml:"sk.file_in"`
	FileOut string `toml:"sk.file_out"`

	CfgStart int `toml:"sk.cfg_start"`
	CfgEnd   int `toml:"sk.cfg_end"`

	// K0 is the elementary wavevector step. Leave it zero to use 2*pi/L
	// with L taken from the first frame's box.
	K0    float64 `toml:"sk.k0"`
	KMax  float64 `toml:"sk.kmax"`
	NBins int64   `toml:"sk.nbins"`
	Nmax  []int64 `toml:"sk.nmax"`

	Verbose bool `toml:"sk.verbose"`

	grid *kgrid.Grid
	hist []float64
	ncfg int
	nsum float64
}

// ExampleConfig returns an example TOML configuration for the sk mode.
func ExampleConfig() string {
	return `[sk]
# Trajectory in XYZ format and the output column file.
file_in = "traj.xyz"
file_out = "sk.dat"

# Half-open range of configurations to average over.
cfg_start = 0
cfg_end = 100

# Elementary wavevector step. Leave it out (or zero) to use 2*pi/L with L
# read from the first frame's box.
# k0 = 6.2832

# Radial binning: nbins bins of width kmax/nbins cover (0, kmax].
kmax = 20.0
nbins = 40

# Per-axis bounds on the integer k-vector multipliers.
nmax = [10, 10, 10]

# Report per-configuration timing and memory use on stderr.
verbose = false
`
}

// New returns an instance of the SK structure. It reads and parses the
// configuration file given in argument. The file must be a TOML file.
func New(path string) (*SK, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var s SK
	dec := toml.NewDecoder(f)
	if err := dec.Decode(&s); err != nil {
		return nil, err
	}

	if s.CfgStart >= s.CfgEnd {
		return nil, errors.New("CfgStart is greater or equal than CfgEnd")
	}
	if s.NBins <= 1 {
		return nil, errors.New("the number of bins must be greater than 1")
	}
	if s.KMax <= 0 {
		return nil, errors.New("KMax must be positive")
	}
	if len(s.Nmax) != 3 {
		return nil, errors.New("Nmax must have exactly 3 components")
	}

	if s.Verbose {
		logging.Mode = logging.Performance
	}

	return &s, nil
}

// Run performs the calculation and writes the result to FileOut. It is a
// thread blocking method; the per-configuration reduction uses all the
// threads available.
func (s *SK) Run() error {
	r, err := traj.Open(s.FileIn)
	if err != nil {
		return err
	}
	defer r.Close()

	if err := r.Skip(s.CfgStart); err != nil {
		return fmt.Errorf("skipping to configuration %d: %w", s.CfgStart, err)
	}

	for cfg := s.CfgStart; cfg < s.CfgEnd; cfg++ {
		c, err := r.Next()
		if err == io.EOF {
			if s.ncfg == 0 {
				return errors.New("the trajectory holds no configurations " +
					"in the requested range")
			}
			break
		} else if err != nil {
			return fmt.Errorf("reading configuration %d: %w", cfg, err)
		}

		if s.grid == nil {
			if err := s.setup(c); err != nil {
				return err
			}
		}

		timer := logging.StartTimer(fmt.Sprintf("configuration %d", cfg))
		table, err := fourier.NewPhaseTable(s.K0, s.nmax3(), c.Pos)
		if err != nil {
			return fmt.Errorf("configuration %d: %w", cfg, err)
		}
		if err := s.reduce(table); err != nil {
			return fmt.Errorf("configuration %d: %w", cfg, err)
		}
		s.ncfg++
		s.nsum += float64(len(c.Pos))

		if logging.Mode == logging.Performance {
			fmt.Fprintln(os.Stderr, timer.String())
		}
	}

	out, err := os.Create(s.FileOut)
	if err != nil {
		return err
	}
	defer out.Close()
	return s.write(out)
}

func (s *SK) nmax3() [3]int {
	return [3]int{int(s.Nmax[0]), int(s.Nmax[1]), int(s.Nmax[2])}
}

// setup fixes the k-space grid from the first configuration.
func (s *SK) setup(c *traj.Config) error {
	if s.K0 == 0 {
		if c.Box[0] <= 0 {
			return errors.New("K0 is unset and the trajectory carries " +
				"no box to derive it from")
		}
		s.K0 = 2 * math.Pi / c.Box[0]
	}

	grid, err := kgrid.New(s.K0, s.nmax3(), int(s.NBins), s.KMax)
	if err != nil {
		return err
	}
	if len(grid.Kvecs) == 0 {
		return errors.New("no k-vectors survive the kmax cut; raise KMax " +
			"or Nmax")
	}
	s.grid = grid
	s.hist = make([]float64, s.NBins)
	return nil
}

// reduce accumulates |rho(k)|^2 for one configuration, splitting the
// k-vector list across workers. Each worker owns a private histogram, so
// the only coordination is the completion channel and the merge.
func (s *SK) reduce(table *fourier.PhaseTable) error {
	workers := runtime.NumCPU()
	if workers > len(s.grid.Kvecs) {
		workers = len(s.grid.Kvecs)
	}

	parts := make([][]float64, workers)
	errs := make([]error, workers)
	sync := make(chan bool, workers)

	for w := 0; w < workers; w++ {
		go func(w int) {
			lo := w * len(s.grid.Kvecs) / workers
			hi := (w + 1) * len(s.grid.Kvecs) / workers
			parts[w] = make([]float64, len(s.hist))
			errs[w] = table.AccumulateSk(
				s.grid.Kvecs[lo:hi], s.grid.Bins[lo:hi], parts[w],
			)
			sync <- true
		}(w)
	}
	for w := 0; w < workers; w++ {
		<-sync
	}

	for w := 0; w < workers; w++ {
		if errs[w] != nil {
			return errs[w]
		}
		for b := range s.hist {
			s.hist[b] += parts[w][b]
		}
	}
	return nil
}

// write normalizes the accumulated histogram and writes "k S(k)" columns.
// S(k) = <|rho(k)|^2> / N, averaged over configurations and over the
// k-vectors of each radial bin. Empty bins are skipped.
func (s *SK) write(w io.Writer) error {
	if s.ncfg == 0 {
		return errors.New("nothing accumulated")
	}
	nAvg := s.nsum / float64(s.ncfg)

	buf := bufio.NewWriter(w)
	fmt.Fprintln(buf, "# k S(k)")
	centers, counts := s.grid.BinCenters(), s.grid.Counts()
	for b := range s.hist {
		if counts[b] == 0 {
			continue
		}
		sk := s.hist[b] / (float64(s.ncfg) * nAvg * float64(counts[b]))
		fmt.Fprintln(buf, centers[b], sk)
	}
	return buf.Flush()
}
