// bodyhabitat adds a body_habitat_basic column to a mapping file by looking
// up each sample's ENV_MATTER value (gut, oral or skin/other). The new column
// is placed immediately before the last column. Any unrecognized ENV_MATTER
// value aborts the run without writing output.
package main

import (
	"context"
	"fmt"
	"io"

	"github.com/carbocation/microbiogeo"
	"github.com/carbocation/microbiogeo/habitat"
	"github.com/carbocation/microbiogeo/mapping"
	"github.com/carbocation/pfx"
	logging "github.com/op/go-logging"
	"github.com/spf13/pflag"

	_ "github.com/carbocation/microbiogeo/compileinfoprint"
)

var log = logging.MustGetLogger("bodyhabitat")

func main() {
	var input, output, column, name string
	var quiet bool

	pflag.StringVarP(&input, "input", "i", "", "Mapping file to annotate (required). Local, ~/ or gs:// paths; may be compressed.")
	pflag.StringVarP(&output, "output", "o", "", "Path for the annotated mapping file (required)")
	pflag.StringVar(&column, "column", habitat.SourceColumn, "Column holding the ENV_MATTER vocabulary")
	pflag.StringVar(&name, "name", habitat.TargetColumn, "Name of the derived column")
	pflag.BoolVarP(&quiet, "quiet", "q", false, "Only log warnings and errors")
	pflag.Parse()

	microbiogeo.SetupLogging(quiet)

	if input == "" {
		pflag.Usage()
		log.Fatal("missing required argument --input")
	}
	if output == "" {
		pflag.Usage()
		log.Fatal("missing required argument --output")
	}

	if err := run(input, output, column, name); err != nil {
		log.Fatal(err)
	}
}

func run(input, output, column, name string) error {
	client, err := microbiogeo.MaybeStorageClient(context.Background(), input)
	if err != nil {
		return err
	}
	if client != nil {
		defer client.Close()
	}

	m, err := mapping.Read(input, client)
	if err != nil {
		return err
	}

	if m.HasCategory(name) {
		return pfx.Err(fmt.Errorf("%s already has a column named %q", input, name))
	}

	if err := habitat.Derive(m, column, name); err != nil {
		return err
	}

	if err := microbiogeo.WriteFileAtomic(output, func(w io.Writer) error {
		return m.Write(w)
	}); err != nil {
		return err
	}

	log.Infof("Annotated %d samples with %s; wrote %s", m.Len(), name, output)

	return nil
}
