// Package traj reads multi-configuration XYZ trajectory files.
//
// Each frame is a particle count line, a comment line, and one row per
// particle of the form "species x y z". The box side is recovered from the
// comment line when it carries either a bare "Lx Ly Lz" triple or an
// extended-XYZ Lattice attribute with a diagonal cell.
package traj

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Config is one frame of a trajectory.
type Config struct {
	Species []string
	Pos     [][3]float64
	Box     [3]float64 // zero when the comment line carries no cell
}

// Reader streams frames out of an XYZ file.
type Reader struct {
	f    *os.File
	s    *bufio.Scanner
	path string
	line int
}

// Open opens the trajectory at path.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	s := bufio.NewScanner(f)
	s.Buffer(make([]byte, 1<<16), 1<<24)
	return &Reader{f: f, s: s, path: path}, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error { return r.f.Close() }

func (r *Reader) scan() (string, bool) {
	if !r.s.Scan() {
		return "", false
	}
	r.line++
	return r.s.Text(), true
}

// Next reads and returns the next frame. It returns io.EOF once the
// trajectory is exhausted.
func (r *Reader) Next() (*Config, error) {
	head, ok := r.scan()
	if !ok {
		if err := r.s.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	n, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil || n < 0 {
		return nil, fmt.Errorf(
			"%s:%d: expected a particle count, got %q", r.path, r.line, head,
		)
	}

	comment, ok := r.scan()
	if !ok {
		return nil, fmt.Errorf(
			"%s:%d: trajectory ends before the comment line", r.path, r.line,
		)
	}

	c := &Config{
		Species: make([]string, n),
		Pos:     make([][3]float64, n),
		Box:     parseBox(comment),
	}

	for i := 0; i < n; i++ {
		row, ok := r.scan()
		if !ok {
			return nil, fmt.Errorf(
				"%s:%d: frame promised %d particles but ends after %d",
				r.path, r.line, n, i,
			)
		}
		fields := strings.Fields(row)
		if len(fields) < 4 {
			return nil, fmt.Errorf(
				"%s:%d: particle row %q has %d columns, want at least 4",
				r.path, r.line, row, len(fields),
			)
		}
		c.Species[i] = fields[0]
		for a := 0; a < 3; a++ {
			x, err := strconv.ParseFloat(fields[a+1], 64)
			if err != nil {
				return nil, fmt.Errorf(
					"%s:%d: cannot parse coordinate %q", r.path, r.line,
					fields[a+1],
				)
			}
			c.Pos[i][a] = x
		}
	}

	return c, nil
}

// Skip discards the next n frames.
func (r *Reader) Skip(n int) error {
	for i := 0; i < n; i++ {
		if _, err := r.Next(); err != nil {
			return err
		}
	}
	return nil
}

// ReadAll reads every frame of the trajectory at path.
func ReadAll(path string) ([]*Config, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var cfgs []*Config
	for {
		c, err := r.Next()
		if err == io.EOF {
			return cfgs, nil
		} else if err != nil {
			return nil, err
		}
		cfgs = append(cfgs, c)
	}
}

// parseBox recovers the box side from an XYZ comment line. It understands
// an extended-XYZ Lattice="ax ay az bx by bz cx cy cz" attribute (diagonal
// part only) and the bare "Lx Ly Lz" convention. Anything else leaves the
// box zeroed.
func parseBox(comment string) [3]float64 {
	var box [3]float64

	if i := strings.Index(comment, `Lattice="`); i != -1 {
		rest := comment[i+len(`Lattice="`):]
		if j := strings.Index(rest, `"`); j != -1 {
			fields := strings.Fields(rest[:j])
			if len(fields) == 9 {
				for a := 0; a < 3; a++ {
					x, err := strconv.ParseFloat(fields[4*a], 64)
					if err != nil {
						return [3]float64{}
					}
					box[a] = x
				}
				return box
			}
		}
	}

	fields := strings.Fields(comment)
	if len(fields) >= 3 {
		for a := 0; a < 3; a++ {
			x, err := strconv.ParseFloat(fields[a], 64)
			if err != nil {
				return [3]float64{}
			}
			box[a] = x
		}
	}
	return box
}
