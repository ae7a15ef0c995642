// summarize collects the *_results.txt reports written by the category test
// runners and mantel beneath a directory tree into one table, with a median
// effect size and p-value per method.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/carbocation/microbiogeo"
	"github.com/carbocation/microbiogeo/results"
	logging "github.com/op/go-logging"
	"github.com/spf13/pflag"

	_ "github.com/carbocation/microbiogeo/compileinfoprint"
)

var log = logging.MustGetLogger("summarize")

type config struct {
	Root   string
	Output string
	SQLite string
}

func main() {
	var cfg config
	var quiet bool

	pflag.StringVarP(&cfg.Root, "input_dir", "i", ".", "Directory to search for *_results.txt reports")
	pflag.StringVarP(&cfg.Output, "output", "o", "", "Path for the TSV summary. Standard output if empty.")
	pflag.StringVar(&cfg.SQLite, "sqlite", "", "Optional SQLite database to (re)write the summary table into")
	pflag.BoolVarP(&quiet, "quiet", "q", false, "Only log warnings and errors")
	pflag.Parse()

	microbiogeo.SetupLogging(quiet)

	if err := run(cfg, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(cfg config, stdout io.Writer) error {
	found, err := results.Walk(cfg.Root)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		return fmt.Errorf("no result files found beneath %s", cfg.Root)
	}

	rows := results.Summarize(found)
	log.Infof("Summarized %d results from %s", len(found), cfg.Root)

	write := func(w io.Writer) error {
		return results.WriteTSV(w, rows)
	}
	if cfg.Output == "" {
		if err := write(stdout); err != nil {
			return err
		}
	} else if err := microbiogeo.WriteFileAtomic(cfg.Output, write); err != nil {
		return err
	}

	if cfg.SQLite != "" {
		if err := results.WriteSQLite(cfg.SQLite, rows); err != nil {
			return err
		}
		log.Infof("Wrote %d rows to %s", len(rows), cfg.SQLite)
	}

	return nil
}
