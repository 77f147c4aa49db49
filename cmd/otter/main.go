// Copyright 2024 The OtterSat Authors. All rights reserved.  Use of this
// source code is governed by a license that can be found in the License file.

// Command otter solves DIMACS CNF and incremental CNF problems.
package main

import (
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	otter "github.com/teeaychem/otter-sat"
	"github.com/teeaychem/otter-sat/z"
)

type options struct {
	model      bool
	satcomp    bool
	stats      bool
	failed     bool
	timeout    time.Duration
	assume     []int
	proofPath  string
	configPath string
	verbose    bool

	set map[string]interface{}
}

var opts = options{set: map[string]interface{}{}}

func main() {
	root := &cobra.Command{
		Use:   "otter [flags] [file ...]",
		Short: "otter is a CDCL SAT solver",
		Long: `otter solves CNF problems in DIMACS format (.cnf, .icnf, optionally
gzip or bzip2 compressed, or "-" for stdin), reporting s/v/f lines in
SAT competition style.`,
		Args: cobra.ArbitraryArgs,
		RunE: run,

		SilenceUsage:  true,
		SilenceErrors: true,
	}
	fs := root.Flags()
	fs.BoolVarP(&opts.model, "model", "m", false, "output model")
	fs.BoolVar(&opts.satcomp, "satcomp", false, "exit 10 sat, 20 unsat, 0 unknown")
	fs.BoolVar(&opts.stats, "stats", false, "print statistics after solving")
	fs.BoolVar(&opts.failed, "failed", false, "output failed assumptions")
	fs.DurationVar(&opts.timeout, "timeout", 30*time.Second, "solve timeout")
	fs.IntSliceVar(&opts.assume, "assume", nil, "assumptions (signed dimacs literals)")
	fs.StringVar(&opts.proofPath, "proof", "", "write the clause lifecycle trace to this file")
	fs.StringVar(&opts.configPath, "config", "", "yaml solver configuration file")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	addConfigFlags(fs)

	if err := root.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

// addConfigFlags exposes each solver option; set flags are overlaid on
// the configuration file.
func addConfigFlags(fs *pflag.FlagSet) {
	fs.Float64("variable-decay", 0.95, "atom activity decay, in (0,1]")
	fs.Float64("clause-decay", 0.98, "learnt clause activity decay, in (0,1]")
	fs.Uint("reduction-interval", 500, "conflicts between learnt clause reductions")
	fs.Bool("no-reduction", false, "disable learnt clause purging")
	fs.Bool("no-restart", false, "disable Luby restarts")
	fs.Bool("no-subsumption", false, "disable on-the-fly self-subsumption")
	fs.Bool("preprocess", false, "eliminate unique polarity literals before solving")
	fs.Uint("glue-strength", 3, "learnt clauses with lbd within the bound are kept")
	fs.String("stopping-criteria", "FirstUIP", "FirstUIP or None")
	fs.String("vsids-variant", "MiniSAT", "MiniSAT or Chaff")
	fs.Uint("luby-u", 128, "Luby restart base multiplier")
	fs.Float64("random-choice-frequency", 0, "probability of a random decision")
	fs.Float64("polarity-lean", 0, "probability of positive polarity")
	fs.Uint64("rng-seed", 0, "determinism source")
}

func buildConfig(fs *pflag.FlagSet) (*otter.Config, error) {
	m := map[string]interface{}{}
	if opts.configPath != "" {
		raw, err := os.ReadFile(opts.configPath)
		if err != nil {
			return nil, errors.Wrap(err, "reading config")
		}
		if err := yaml.Unmarshal(raw, &m); err != nil {
			return nil, errors.Wrap(err, "parsing config")
		}
	}
	fs.Visit(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		switch f.Name {
		case "variable-decay", "clause-decay", "random-choice-frequency", "polarity-lean":
			v, _ := fs.GetFloat64(f.Name)
			m[key] = v
		case "reduction-interval", "glue-strength", "luby-u":
			v, _ := fs.GetUint(f.Name)
			m[key] = v
		case "no-reduction", "no-restart", "no-subsumption", "preprocess":
			v, _ := fs.GetBool(f.Name)
			m[key] = v
		case "stopping-criteria", "vsids-variant":
			v, _ := fs.GetString(f.Name)
			m[key] = v
		case "rng-seed":
			v, _ := fs.GetUint64(f.Name)
			m[key] = v
		}
	})
	return otter.ConfigFromMap(m)
}

func run(cmd *cobra.Command, args []string) error {
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if opts.verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	cfg, err := buildConfig(cmd.Flags())
	if err != nil {
		return err
	}
	if len(args) == 0 {
		args = []string{"-"}
	}
	if opts.satcomp && len(args) > 1 {
		return errors.New("can't use --satcomp with more than one input")
	}
	last := 0
	for _, p := range args {
		res, err := runPath(cfg, p)
		if err != nil {
			if opts.satcomp {
				return err
			}
			logrus.WithField("path", p).Error(err)
			continue
		}
		last = res
	}
	if opts.satcomp {
		switch last {
		case 1:
			os.Exit(10)
		case -1:
			os.Exit(20)
		default:
			os.Exit(0)
		}
	}
	return nil
}

func runPath(cfg *otter.Config, p string) (int, error) {
	r, closer, err := pathReader(p)
	if err != nil {
		return 0, err
	}
	if closer != nil {
		defer closer.Close()
	}
	if isICnf(p) {
		return runICnf(cfg, r)
	}
	return runCnf(cfg, r)
}

func runCnf(cfg *otter.Config, r io.Reader) (int, error) {
	start := time.Now()
	s, err := otter.NewDimacsWith(cfg, r)
	if err != nil {
		return 0, err
	}
	logrus.Debugf("parsed dimacs in %s", time.Since(start))

	var proof *proofWriter
	if opts.proofPath != "" {
		proof, err = newProofWriter(opts.proofPath)
		if err != nil {
			return 0, err
		}
		defer proof.Close()
		s.SetEventHandler(proof.handle)
	}
	for _, d := range opts.assume {
		if d == 0 {
			return 0, errors.New("zero assumption")
		}
		s.Assume(z.Dimacs2Lit(d))
	}
	st := otter.NewStats()
	res := s.GoSolve().Try(opts.timeout)
	if opts.stats {
		s.ReadStats(st)
		st.Dur = time.Since(st.Start)
		logrus.Infoln(st)
	}
	reportResult(res)
	if res == 1 && opts.model {
		outputModel(os.Stdout, s)
	}
	if res == -1 && opts.failed {
		outputFailed(os.Stdout, s.Why(nil))
	}
	return res, nil
}

func reportResult(res int) {
	switch res {
	case 1:
		fmt.Printf("s SATISFIABLE\n")
	case -1:
		fmt.Printf("s UNSATISFIABLE\n")
	default:
		fmt.Printf("s UNKNOWN\n")
	}
}

func pathReader(p string) (io.Reader, io.Closer, error) {
	if p == "-" {
		return os.Stdin, nil, nil
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, nil, err
	}
	if strings.HasSuffix(p, ".gz") {
		r, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, nil, err
		}
		return r, f, nil
	}
	if strings.HasSuffix(p, ".bz2") {
		return bzip2.NewReader(f), f, nil
	}
	return f, f, nil
}

func isICnf(p string) bool {
	q := strings.TrimSuffix(strings.TrimSuffix(p, ".gz"), ".bz2")
	return strings.HasSuffix(q, ".icnf")
}

func outputModel(w io.Writer, s *otter.Otter) {
	col := 2
	fmt.Fprintf(w, "v")
	for _, m := range s.Valuation(nil) {
		d := m.Dimacs()
		n := digits(d)
		if col+n+1 > 78 {
			fmt.Fprintf(w, "\nv")
			col = 2
		}
		fmt.Fprintf(w, " %d", d)
		col += n + 1
	}
	fmt.Fprintf(w, " 0\n")
}

func outputFailed(w io.Writer, fs []z.Lit) {
	col := 2
	fmt.Fprintf(w, "f")
	for _, m := range fs {
		d := m.Dimacs()
		n := digits(d)
		if col+n+1 > 78 {
			fmt.Fprintf(w, "\nf")
			col = 2
		}
		fmt.Fprintf(w, " %d", d)
		col += n + 1
	}
	fmt.Fprintf(w, "\n")
}

func digits(d int) int {
	n := 1
	if d < 0 {
		n++
		d = -d
	}
	for d > 9 {
		n++
		d /= 10
	}
	return n
}
