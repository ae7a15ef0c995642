package categorytest

import (
	"github.com/spf13/pflag"
)

// BindFlags registers the command line flags shared by every category test
// tool onto fs, storing their values in o.
func BindFlags(fs *pflag.FlagSet, o *Options) {
	fs.StringVarP(&o.DistMat, "distmat", "d", "", "Path to the distance matrix (required). Local, ~/ or gs:// paths; may be compressed.")
	fs.StringVarP(&o.MapFile, "mapfile", "m", "", "Path to the mapping file (required). Local, ~/ or gs:// paths; may be compressed.")
	fs.StringVarP(&o.Category, "category", "c", "", "Mapping file column to test (required)")
	fs.StringVarP(&o.OutDir, "outdir", "o", DefaultOutDir, "Directory that will hold the result file; created if absent")
	fs.IntVarP(&o.Permutations, "num_permutations", "n", DefaultPermutations, "Number of permutations used to assess significance")
	fs.Int64Var(&o.Seed, "seed", 0, "Seed for the permutation generator. 0 seeds from the clock.")
}
