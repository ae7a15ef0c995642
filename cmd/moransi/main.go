// moransi computes Moran's I spatial autocorrelation of a numeric mapping
// file column, weighting each pair of samples by the inverse of their
// distance in a distance matrix. The report is written to
// morans_i_results.txt in the output directory.
package main

import (
	"errors"

	"github.com/carbocation/microbiogeo"
	"github.com/carbocation/microbiogeo/categorytest"
	logging "github.com/op/go-logging"
	"github.com/spf13/pflag"

	_ "github.com/carbocation/microbiogeo/compileinfoprint"
)

var log = logging.MustGetLogger("moransi")

func main() {
	var opts categorytest.Options
	var quiet bool

	categorytest.BindFlags(pflag.CommandLine, &opts)
	pflag.BoolVarP(&quiet, "quiet", "q", false, "Only log warnings and errors")
	pflag.Parse()

	microbiogeo.SetupLogging(quiet)

	if _, err := categorytest.Run(opts, categorytest.MoransI); err != nil {
		var missing *categorytest.MissingArgumentError
		if errors.As(err, &missing) {
			pflag.Usage()
		}
		log.Fatal(err)
	}
}
