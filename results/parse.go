// Package results reads back the report files written by the statistical
// tools and collates their effect sizes and p-values into summary tables.
package results

import (
	"bufio"
	"bytes"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"
	logging "github.com/op/go-logging"
	"gopkg.in/guregu/null.v3"
)

var log = logging.MustGetLogger("results")

// ResultFileSuffix is shared by every report file name.
const ResultFileSuffix = "_results.txt"

// Result is one test outcome parsed from a report file. Statistic and PValue
// are invalid when the report did not contain a usable number.
type Result struct {
	Path          string
	Method        string
	StatisticName string
	Statistic     null.Float
	PValue        null.Float
}

type parser struct {
	statisticName string
	parse         func(lines []string) ([]statPair, error)
}

type statPair struct {
	statistic null.Float
	p         null.Float
}

var parsers = map[string]parser{
	"anosim":    {"R", parseAnosim},
	"permanova": {"R2", parsePermanova},
	"permdisp":  {"F", parsePermdisp},
	"morans_i":  {"I", parseMoransI},
	"mantel":    {"r", parseMantel},
}

// Methods lists the methods whose reports can be parsed.
func Methods() []string {
	out := make([]string, 0, len(parsers))
	for k := range parsers {
		out = append(out, k)
	}
	sort.Strings(out)

	return out
}

// MethodFromPath derives the method from a report file name such as
// anosim_results.txt.
func MethodFromPath(path string) (string, bool) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, ResultFileSuffix) {
		return "", false
	}
	method := strings.TrimSuffix(base, ResultFileSuffix)
	_, known := parsers[method]

	return method, known
}

// ParseFile reads one report file. Mantel reports yield one result per
// matrix pair; every other method yields exactly one.
func ParseFile(path string) ([]Result, error) {
	method, known := MethodFromPath(path)
	if !known {
		return nil, fmt.Errorf("%s is not a recognized result file", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	out, err := Parse(method, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for i := range out {
		out[i].Path = path
	}

	return out, nil
}

// Parse extracts results from the text of a report produced by method.
func Parse(method string, data []byte) ([]Result, error) {
	p, known := parsers[method]
	if !known {
		return nil, fmt.Errorf("no parser for method %q", method)
	}

	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	pairs, err := p.parse(lines)
	if err != nil {
		return nil, err
	}

	out := make([]Result, 0, len(pairs))
	for _, pair := range pairs {
		out = append(out, Result{
			Method:        method,
			StatisticName: p.statisticName,
			Statistic:     pair.statistic,
			PValue:        pair.p,
		})
	}

	return out, nil
}

// Walk parses every recognized report file beneath root.
func Walk(root string) ([]Result, error) {
	var out []Result

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		if _, known := MethodFromPath(path); !known {
			if strings.HasSuffix(path, ResultFileSuffix) {
				log.Warningf("Skipping %s: unrecognized method", path)
			}
			return nil
		}

		res, err := ParseFile(path)
		if err != nil {
			return err
		}
		out = append(out, res...)

		return nil
	})
	if err != nil {
		return nil, pfx.Err(err)
	}

	return out, nil
}

// number parses s, treating NA and anything else non-numeric as missing.
func number(s string) null.Float {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) {
		return null.Float{}
	}

	return null.FloatFrom(v)
}

func valueAfter(lines []string, prefix string) (string, bool) {
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(trimmed, prefix)), true
		}
	}

	return "", false
}

func parseAnosim(lines []string) ([]statPair, error) {
	r, ok := valueAfter(lines, "ANOSIM statistic R:")
	if !ok {
		return nil, fmt.Errorf("no ANOSIM statistic found")
	}
	p, _ := valueAfter(lines, "Significance:")

	return []statPair{{number(r), number(p)}}, nil
}

// parsePermanova reads R2 and Pr(>F) from the first row after the adonis
// table header.
func parsePermanova(lines []string) ([]statPair, error) {
	for i, line := range lines {
		if !strings.Contains(line, "F.Model") || i+1 >= len(lines) {
			continue
		}
		fields := strings.Fields(lines[i+1])
		if len(fields) < 7 {
			return nil, fmt.Errorf("malformed PERMANOVA row %q", lines[i+1])
		}
		return []statPair{{number(fields[len(fields)-2]), number(fields[len(fields)-1])}}, nil
	}

	return nil, fmt.Errorf("no PERMANOVA table found")
}

func parsePermdisp(lines []string) ([]statPair, error) {
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 7 && fields[0] == "Groups" {
			return []statPair{{number(fields[4]), number(fields[6])}}, nil
		}
	}

	return nil, fmt.Errorf("no PERMDISP table found")
}

func parseMoransI(lines []string) ([]statPair, error) {
	get := func(name string) (string, bool) {
		for i, line := range lines {
			if strings.TrimSpace(line) == name && i+1 < len(lines) {
				return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(lines[i+1]), "[1]")), true
			}
		}
		return "", false
	}

	obs, ok := get("$observed")
	if !ok {
		return nil, fmt.Errorf("no Moran's I observed value found")
	}
	p, _ := get("$p.value")

	return []statPair{{number(obs), number(p)}}, nil
}

// parseMantel reads the tab-delimited comparison table. Rows for pairs with
// too few samples carry no statistic.
func parseMantel(lines []string) ([]statPair, error) {
	var out []statPair
	header := true
	for _, line := range lines {
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}
		if header {
			header = false
			if !strings.HasPrefix(line, "DM1\t") {
				return nil, fmt.Errorf("unexpected Mantel header %q", line)
			}
			continue
		}

		fields := strings.Split(line, "\t")
		pair := statPair{}
		if len(fields) >= 5 {
			pair = statPair{number(fields[3]), number(fields[4])}
		}
		out = append(out, pair)
	}

	if header {
		return nil, fmt.Errorf("no Mantel table found")
	}

	return out, nil
}
