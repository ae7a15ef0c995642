// permdisp tests whether the groups of a mapping file category differ in
// their dispersion: the distance of each sample to its group's centre in
// principal coordinate space. The report is written to permdisp_results.txt
// in the output directory.
package main

import (
	"errors"
	"os"

	"github.com/carbocation/microbiogeo"
	"github.com/carbocation/microbiogeo/categorytest"
	"github.com/carbocation/microbiogeo/stats"
	logging "github.com/op/go-logging"
	"github.com/spf13/pflag"

	_ "github.com/carbocation/microbiogeo/compileinfoprint"
)

var log = logging.MustGetLogger("permdisp")

func main() {
	var opts categorytest.Options
	var centre string
	var histogram, quiet bool

	categorytest.BindFlags(pflag.CommandLine, &opts)
	pflag.StringVar(&centre, "centre", "median", "Group centre: median (spatial median) or centroid")
	pflag.BoolVar(&histogram, "histogram", false, "Plot the permutation null distribution to stderr")
	pflag.BoolVarP(&quiet, "quiet", "q", false, "Only log warnings and errors")
	pflag.Parse()

	microbiogeo.SetupLogging(quiet)

	if histogram {
		opts.Histogram = os.Stderr
	}

	// Missing required flags are reported ahead of a bad --centre.
	if err := opts.Validate(); err != nil {
		pflag.Usage()
		log.Fatal(err)
	}

	centreType, err := stats.ParseCentreType(centre)
	if err != nil {
		log.Fatal(err)
	}

	if _, err := categorytest.Run(opts, categorytest.Permdisp(centreType)); err != nil {
		var missing *categorytest.MissingArgumentError
		if errors.As(err, &missing) {
			pflag.Usage()
		}
		log.Fatal(err)
	}
}
