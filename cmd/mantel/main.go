// mantel compares every pair of a list of distance matrices with a Mantel
// test, writing one row per pair to a tab-delimited table. Sample IDs can be
// translated through a two-column map before matrices are matched up.
package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/carbocation/microbiogeo"
	"github.com/carbocation/microbiogeo/distmat"
	"github.com/carbocation/microbiogeo/stats"
	logging "github.com/op/go-logging"
	"github.com/spf13/pflag"

	_ "github.com/carbocation/microbiogeo/compileinfoprint"
)

var log = logging.MustGetLogger("mantel")

type config struct {
	InputDMs    string
	Output      string
	Iterations  int
	SampleIDMap string
	TailType    string
	Seed        int64
	Quiet       bool
}

func main() {
	var cfg config

	pflag.StringVarP(&cfg.InputDMs, "input_dms", "i", "", "Comma-separated list of at least two distance matrices (required)")
	pflag.StringVarP(&cfg.Output, "output_fp", "o", "", "Path for the results table (required)")
	pflag.IntVarP(&cfg.Iterations, "num_iterations", "n", 100, "Number of permutations used to assess significance")
	pflag.StringVarP(&cfg.SampleIDMap, "sample_id_map_fp", "s", "", "Optional two-column file mapping sample IDs in the matrices to the IDs used to match them")
	pflag.StringVarP(&cfg.TailType, "tail_type", "t", string(stats.TwoSided), "Alternative hypothesis: 'two sided', 'greater' or 'less'")
	pflag.Int64Var(&cfg.Seed, "seed", 0, "Seed for the permutation generator. 0 seeds from the clock.")
	pflag.BoolVarP(&cfg.Quiet, "quiet", "q", false, "Only log warnings and errors")
	pflag.Parse()

	microbiogeo.SetupLogging(cfg.Quiet)

	if cfg.InputDMs == "" {
		pflag.Usage()
		log.Fatal("missing required argument --input_dms")
	}
	if cfg.Output == "" {
		pflag.Usage()
		log.Fatal("missing required argument --output_fp")
	}

	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
}

func run(cfg config) error {
	paths := strings.Split(cfg.InputDMs, ",")
	for i := range paths {
		paths[i] = strings.TrimSpace(paths[i])
	}
	if len(paths) < 2 {
		return fmt.Errorf("at least two distance matrices are required, got %d", len(paths))
	}
	if cfg.Iterations < 0 {
		return fmt.Errorf("--num_iterations must be non-negative, got %d", cfg.Iterations)
	}

	tail, err := stats.ParseTailType(cfg.TailType)
	if err != nil {
		return err
	}

	client, err := microbiogeo.MaybeStorageClient(context.Background(), append(append([]string{}, paths...), cfg.SampleIDMap)...)
	if err != nil {
		return err
	}
	if client != nil {
		defer client.Close()
	}

	var lookup map[string]string
	if cfg.SampleIDMap != "" {
		if lookup, err = readSampleIDMap(cfg.SampleIDMap, client); err != nil {
			return err
		}
	}

	dms := make([]*distmat.DistanceMatrix, 0, len(paths))
	for _, path := range paths {
		dm, err := distmat.Read(path, client)
		if err != nil {
			return err
		}
		if lookup != nil {
			if dm, err = dm.Relabel(lookup); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
		}
		dms = append(dms, dm)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	comparisons, err := compareAll(paths, dms, tail, cfg.Iterations, rand.New(rand.NewSource(seed)))
	if err != nil {
		return err
	}

	if err := microbiogeo.WriteFileAtomic(cfg.Output, func(w io.Writer) error {
		return writeTable(w, comparisons, tail, cfg.Iterations)
	}); err != nil {
		return err
	}

	log.Infof("Compared %d pairs of distance matrices; wrote %s", len(comparisons), cfg.Output)

	return nil
}
