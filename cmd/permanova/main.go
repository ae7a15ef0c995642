// permanova partitions the squared distances of a distance matrix by a mapping
// file category and tests the pseudo-F statistic by permutation (a one-factor
// adonis). The report is written to permanova_results.txt in the output
// directory.
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

var log = logging.MustGetLogger("permanova")

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

	if _, err := categorytest.Run(opts, categorytest.Permanova); err != nil {
		var missing *categorytest.MissingArgumentError
		if errors.As(err, &missing) {
			pflag.Usage()
		}
		log.Fatal(err)
	}
}
