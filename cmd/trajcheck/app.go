package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/trajopt/config"
	"go.viam.com/trajopt/logging"
	"go.viam.com/trajopt/optimization"
)

const (
	// Flags.
	flagConfig    = "config"
	flagDebug     = "debug"
	flagDense     = "dense"
	flagTolerance = "tolerance"
	flagStep      = "step"
	flagForward   = "forward"

	defaultTolerance = 1e-4
)

// ErrDerivativeMismatch is returned when the analytic jacobian disagrees with finite differences.
var ErrDerivativeMismatch = errors.New("analytic jacobian does not match finite differences")

type runner struct {
	logger logging.Logger
}

func newApp(out, errOut io.Writer) *cli.App {
	r := &runner{}
	return &cli.App{
		Name:      "trajcheck",
		Usage:     "inspect trajectory optimization problems",
		Writer:    out,
		ErrWriter: errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     flagConfig,
				Aliases:  []string{"c"},
				Required: true,
				Usage:    "load the problem from `FILE`",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool(flagDebug) {
				r.logger = logging.NewDebugLogger("trajcheck")
			} else {
				r.logger = logging.NewLogger("trajcheck")
				r.logger.SetLevel(logging.WARN)
			}
			logging.ReplaceGlobal(r.logger)
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "print",
				Usage: "print the variables, residuals and constraint jacobian of a problem",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  flagDense,
						Usage: "print the jacobian as a dense matrix",
					},
				},
				Action: r.printAction,
			},
			{
				Name:  "check-derivatives",
				Usage: "compare the constraint jacobian against a finite difference estimate",
				Flags: []cli.Flag{
					&cli.Float64Flag{
						Name:  flagTolerance,
						Value: defaultTolerance,
						Usage: "largest allowed absolute difference",
					},
					&cli.Float64Flag{
						Name:  flagStep,
						Usage: "finite difference step, zero for the formula default",
					},
					&cli.BoolFlag{
						Name:  flagForward,
						Usage: "use forward instead of central differences",
					},
				},
				Action: r.checkDerivativesAction,
			},
		},
	}
}

func (r *runner) loadProblem(c *cli.Context) (*optimization.Problem, error) {
	cfg, err := config.Read(c.String(flagConfig))
	if err != nil {
		return nil, err
	}
	return cfg.Build(r.logger)
}

func (r *runner) printAction(c *cli.Context) error {
	p, err := r.loadProblem(c)
	if err != nil {
		return err
	}
	w := c.App.Writer

	x := p.Variables()
	xBounds := p.VariableBounds()
	offset := 0
	for _, vs := range p.VariableSets() {
		fmt.Fprintf(w, "variables %s:\n", vs.Name())
		tw := newTable(w, "#", "value", "lower", "upper")
		for i := offset; i < offset+vs.Rows(); i++ {
			tw.AppendRow(table.Row{i, x[i], xBounds[i].Lower, xBounds[i].Upper})
		}
		tw.Render()
		offset += vs.Rows()
	}

	g, err := p.ConstraintValues()
	if err != nil {
		return err
	}
	gBounds := p.ConstraintBounds()
	row := 0
	for _, cs := range p.ConstraintSets() {
		fmt.Fprintf(w, "constraint %s:\n", cs.Name())
		tw := newTable(w, "#", "value", "lower", "upper", "violation")
		for i := 0; i < cs.Rows(); i++ {
			b := gBounds[row]
			tw.AppendRow(table.Row{row, g[row], b.Lower, b.Upper, b.Violation(g[row])})
			row++
		}
		tw.Render()
	}

	jac, err := p.ConstraintJacobian()
	if err != nil {
		return err
	}
	rows, cols := jac.Dims()
	fmt.Fprintf(w, "jacobian %dx%d, %d non-zeros\n", rows, cols, jac.NonZeros())
	if c.Bool(flagDense) {
		fmt.Fprintf(w, "%.4f\n", mat.Formatted(jac, mat.Squeeze()))
	}
	return nil
}

func (r *runner) checkDerivativesAction(c *cli.Context) error {
	p, err := r.loadProblem(c)
	if err != nil {
		return err
	}
	settings := &fd.JacobianSettings{Formula: fd.Central, Step: c.Float64(flagStep)}
	if c.Bool(flagForward) {
		settings.Formula = fd.Forward
	}
	report, err := optimization.CheckDerivatives(p, settings)
	if err != nil {
		return err
	}

	w := c.App.Writer
	names := lo.FlatMap(p.ConstraintSets(), func(cs optimization.ConstraintSet, _ int) []string {
		return lo.Times(cs.Rows(), func(i int) string { return fmt.Sprintf("%s[%d]", cs.Name(), i) })
	})
	for i, e := range report.RowErrors {
		fmt.Fprintf(w, "%-24s %.3e\n", names[i], e)
	}
	fmt.Fprintf(w, "max error %.3e at (%d, %d)\n", report.MaxError, report.MaxRow, report.MaxCol)
	mean, err := stats.Mean(report.RowErrors)
	if err != nil {
		return err
	}
	p95, err := stats.Percentile(report.RowErrors, 95)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "mean row error %.3e, 95th percentile %.3e\n", mean, p95)

	tol := c.Float64(flagTolerance)
	if !report.Ok(tol) {
		r.logger.Warnw("derivative check failed", "max_error", report.MaxError, "tolerance", tol,
			"row", names[report.MaxRow], "col", report.MaxCol)
		return errors.Wrapf(ErrDerivativeMismatch, "max error %.3e exceeds %.3e", report.MaxError, tol)
	}
	fmt.Fprintln(w, "ok")
	return nil
}

func newTable(w io.Writer, header ...interface{}) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row(header))
	tw.SetStyle(table.StyleLight)
	return tw
}
