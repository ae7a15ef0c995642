// Package categorytest runs a distance-based test of one mapping file column
// against a distance matrix: it validates arguments, loads and intersects the
// inputs, runs the test and writes the report to a fixed-name file.
package categorytest

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/carbocation/microbiogeo"
	"github.com/carbocation/microbiogeo/distmat"
	"github.com/carbocation/microbiogeo/mapping"
	"github.com/carbocation/microbiogeo/stats"
	"github.com/carbocation/pfx"
	logging "github.com/op/go-logging"
)

var log = logging.MustGetLogger("categorytest")

const (
	DefaultOutDir       = "."
	DefaultPermutations = 999

	histogramBins  = 20
	histogramWidth = 60
)

type Options struct {
	DistMat  string
	MapFile  string
	Category string
	OutDir   string

	Permutations int

	// Seed for the permutation generator; 0 seeds from the clock.
	Seed int64

	// Histogram, if set, receives a plot of the permutation null
	// distribution.
	Histogram io.Writer
}

// Validate checks the arguments without touching the filesystem. Required
// arguments are checked in the order distance matrix, mapping file, category,
// and the first missing one is reported as a *MissingArgumentError.
func (o Options) Validate() error {
	if o.DistMat == "" {
		return &MissingArgumentError{Flag: "distmat"}
	}
	if o.MapFile == "" {
		return &MissingArgumentError{Flag: "mapfile"}
	}
	if o.Category == "" {
		return &MissingArgumentError{Flag: "category"}
	}
	if o.Permutations < 0 {
		return fmt.Errorf("--num_permutations must be non-negative, got %d", o.Permutations)
	}

	return nil
}

// Dataset is the part of a distance matrix and a mapping file that concerns
// the samples present in both, in distance matrix order.
type Dataset struct {
	DM      *distmat.DistanceMatrix
	Mapping *mapping.Map
}

// Intersect restricts dm and m to their shared sample IDs. Neither input is
// modified.
func Intersect(dm *distmat.DistanceMatrix, m *mapping.Map) (*Dataset, error) {
	shared := make([]string, 0, dm.Size())
	for _, id := range dm.IDs() {
		if m.HasSample(id) {
			shared = append(shared, id)
		}
	}

	if len(shared) == 0 {
		return nil, ErrNoSamplesInCommon
	}

	subDM, err := dm.Subset(shared)
	if err != nil {
		return nil, err
	}
	subMap, err := m.Subset(shared)
	if err != nil {
		return nil, err
	}

	if dropped := dm.Size() - len(shared); dropped > 0 {
		log.Infof("%d samples in the distance matrix are absent from the mapping file and were dropped", dropped)
	}
	if dropped := m.Len() - len(shared); dropped > 0 {
		log.Infof("%d samples in the mapping file are absent from the distance matrix and were dropped", dropped)
	}

	return &Dataset{DM: subDM, Mapping: subMap}, nil
}

// Run executes method against the inputs named in opts and returns the path
// of the result file. Nothing is written unless the method succeeds.
func Run(opts Options, method Method) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", err
	}
	if opts.OutDir == "" {
		opts.OutDir = DefaultOutDir
	}

	client, err := microbiogeo.MaybeStorageClient(context.Background(), opts.DistMat, opts.MapFile)
	if err != nil {
		return "", err
	}
	if client != nil {
		defer client.Close()
	}

	if err := os.MkdirAll(opts.OutDir, 0755); err != nil {
		return "", pfx.Err(err)
	}

	dm, err := distmat.Read(opts.DistMat, client)
	if err != nil {
		return "", err
	}
	m, err := mapping.Read(opts.MapFile, client)
	if err != nil {
		return "", err
	}

	data, err := Intersect(dm, m)
	if err != nil {
		return "", err
	}

	if !data.Mapping.HasCategory(opts.Category) {
		return "", &HeaderNotFoundError{Column: opts.Category, Available: data.Mapping.Categories()}
	}

	values, err := data.Mapping.CategoryValues(data.DM.IDs(), opts.Category)
	if err != nil {
		return "", err
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	log.Infof("Running %s on %q over %d samples with %d permutations (seed %d)", method.Name(), opts.Category, data.DM.Size(), opts.Permutations, seed)

	result, err := method.Run(data.DM, values, stats.Options{
		Permutations: opts.Permutations,
		Rand:         rand.New(rand.NewSource(seed)),
		Factor:       opts.Category,
	})
	if err != nil {
		return "", err
	}

	if opts.Histogram != nil {
		if err := stats.WriteHistogram(opts.Histogram, result, histogramBins, histogramWidth); err != nil {
			return "", pfx.Err(err)
		}
	}

	out := filepath.Join(opts.OutDir, method.ResultFile())
	if err := microbiogeo.WriteFileAtomic(out, func(w io.Writer) error {
		_, err := io.WriteString(w, result.Report())
		return err
	}); err != nil {
		return "", err
	}

	log.Infof("Wrote %s results to %s", method.Name(), out)

	return out, nil
}
