// anosim tests whether samples grouped by a mapping file category are more
// similar within groups than between them, using the ranks of the distances
// in a distance matrix. The report is written to anosim_results.txt in the
// output directory.
package main

import (
	"errors"
	"os"

	"github.com/carbocation/microbiogeo"
	"github.com/carbocation/microbiogeo/categorytest"
	logging "github.com/op/go-logging"
	"github.com/spf13/pflag"

	_ "github.com/carbocation/microbiogeo/compileinfoprint"
)

var log = logging.MustGetLogger("anosim")

func main() {
	var opts categorytest.Options
	var histogram, quiet bool

	categorytest.BindFlags(pflag.CommandLine, &opts)
	pflag.BoolVar(&histogram, "histogram", false, "Plot the permutation null distribution to stderr")
	pflag.BoolVarP(&quiet, "quiet", "q", false, "Only log warnings and errors")
	pflag.Parse()

	microbiogeo.SetupLogging(quiet)

	if histogram {
		opts.Histogram = os.Stderr
	}

	if _, err := categorytest.Run(opts, categorytest.Anosim); err != nil {
		var missing *categorytest.MissingArgumentError
		if errors.As(err, &missing) {
			pflag.Usage()
		}
		log.Fatal(err)
	}
}
