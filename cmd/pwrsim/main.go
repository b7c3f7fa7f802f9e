package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/reactorlab/pwrsim/internal/analysis"
	"github.com/reactorlab/pwrsim/internal/config"
	"github.com/reactorlab/pwrsim/internal/control"
	"github.com/reactorlab/pwrsim/internal/export"
	"github.com/reactorlab/pwrsim/internal/metrics"
	"github.com/reactorlab/pwrsim/internal/optim"
	"github.com/reactorlab/pwrsim/internal/sim"
	"github.com/reactorlab/pwrsim/internal/storage"
	"github.com/reactorlab/pwrsim/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir     string
	tick        float64
	duration    float64
	compression float64
	initMode    string
	initPower   float64
	controller  string
	target      float64
	recordEvery int
	// Plant config and export paths
	configFile string
	exportPath string
	svgOut     string
	// Critical boron search
	power       float64
	sweepFrom   float64
	sweepTo     float64
	sweepPoints int
	// Controller tuning
	tuneTarget float64
	tuneTime   float64
)

// main registers the CLI commands. With no subcommand the live panel
// opens on the full power scenario.
func main() {
	rootCmd := &cobra.Command{
		Use:   "pwrsim",
		Short: "pressurized water reactor core simulator",
		RunE: func(cmd *cobra.Command, args []string) error {
			return liveScenario(cmd, nil)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".pwrsim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run a scenario headless",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	runCmd.Flags().Float64Var(&tick, "tick", config.DefaultTick, "integration tick (s)")
	runCmd.Flags().Float64Var(&duration, "time", 600.0, "duration (s)")
	runCmd.Flags().Float64Var(&compression, "compression", config.DefaultCompression, "time compression factor")
	runCmd.Flags().StringVar(&initMode, "init", "hzp", "initial condition (cold, hzp, power)")
	runCmd.Flags().Float64Var(&initPower, "init-power", 1.0, "initial power fraction for power init")
	runCmd.Flags().StringVar(&controller, "controller", "none", "controller (none, ascension)")
	runCmd.Flags().Float64Var(&target, "target", 1.0, "controller power target")
	runCmd.Flags().IntVar(&recordEvery, "record-every", 1, "snapshot recording stride")
	runCmd.Flags().StringVar(&configFile, "config", "", "plant config file (yaml)")
	runCmd.Flags().StringVar(&exportPath, "export", "", "export run data to JSON (- for stdout)")

	liveCmd := &cobra.Command{
		Use:   "live [scenario]",
		Short: "open the control room panel",
		Args:  cobra.MaximumNArgs(1),
		RunE:  liveScenario,
	}
	liveCmd.Flags().Float64Var(&tick, "tick", config.DefaultTick, "integration tick (s)")
	liveCmd.Flags().Float64Var(&compression, "compression", config.DefaultCompression, "time compression factor")
	liveCmd.Flags().StringVar(&initMode, "init", "hzp", "initial condition (cold, hzp, power)")
	liveCmd.Flags().Float64Var(&initPower, "init-power", 1.0, "initial power fraction for power init")
	liveCmd.Flags().StringVar(&controller, "controller", "none", "controller (none, ascension)")
	liveCmd.Flags().Float64Var(&target, "target", 1.0, "controller power target")
	liveCmd.Flags().StringVar(&configFile, "config", "", "plant config file (yaml)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id] [column...]",
		Short: "plot recorded channels",
		Args:  cobra.MinimumNArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id] [column]",
		Short: "oscillation analysis of a recorded channel",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  analyzeRun,
	}

	critboronCmd := &cobra.Command{
		Use:   "critboron",
		Short: "estimate critical boron at power",
		RunE:  estimateBoron,
	}
	critboronCmd.Flags().Float64Var(&power, "power", 1.0, "power fraction (0 for hot zero power)")
	critboronCmd.Flags().StringVar(&configFile, "config", "", "plant config file (yaml)")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "critical boron curve over a power range",
		RunE:  sweepBoron,
	}
	sweepCmd.Flags().Float64Var(&sweepFrom, "from", 0.1, "lowest power fraction")
	sweepCmd.Flags().Float64Var(&sweepTo, "to", 1.0, "highest power fraction")
	sweepCmd.Flags().IntVar(&sweepPoints, "points", 10, "number of points")
	sweepCmd.Flags().StringVar(&configFile, "config", "", "plant config file (yaml)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list canned scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tINIT\tDURATION\tCOMPRESSION\tDESCRIPTION")
			for _, name := range config.ListScenarios() {
				sc := config.GetScenario(name)
				fmt.Fprintf(w, "%s\t%s\t%.0fs\tx%.0f\t%s\n",
					sc.Name, sc.Init, sc.Duration, sc.Compression, sc.Description)
			}
			return w.Flush()
		},
	}

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search the rod controller settings",
		RunE:  tuneController,
	}
	tuneCmd.Flags().Float64Var(&tuneTarget, "target", 0.3, "ascension power target")
	tuneCmd.Flags().Float64Var(&tuneTime, "time", 1800.0, "seconds simulated per candidate")
	tuneCmd.Flags().StringVar(&configFile, "config", "", "plant config file (yaml)")

	svgCmd := &cobra.Command{
		Use:   "svg [run_id] [column...]",
		Short: "export recorded channels as an SVG chart",
		Args:  cobra.MinimumNArgs(1),
		RunE:  svgChart,
	}
	svgCmd.Flags().StringVar(&svgOut, "out", "", "output path (default <run_id>.svg)")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark the core integrator",
		RunE:  benchCore,
	}

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd, analyzeCmd, critboronCmd, sweepCmd, tuneCmd, svgCmd, presetsCmd, benchCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := resolveScenario(args[0])
	if err != nil {
		return err
	}
	applyOverrides(cmd, sc)

	plant, err := loadPlant()
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	sess, err := buildSession(plant, sc)
	if err != nil {
		return err
	}
	sess.AddMetric(metrics.NewEnergy(plant.RatedMWt))
	sess.AddMetric(metrics.NewPeakPower())
	sess.AddMetric(metrics.NewMaxStartupRate())
	sess.AddMetric(metrics.NewRodTravel())
	sess.AddMetric(metrics.NewTripCount())

	cfg := sim.Config{
		Tick:        sc.Tick,
		Duration:    sc.Duration,
		Compression: sc.Compression,
		RecordEvery: recordEvery,
	}

	fmt.Printf("running %s...\n", sc.Name)
	start := time.Now()

	result, err := sess.Run(context.Background(), cfg)
	if err != nil {
		return err
	}

	elapsed := time.Since(start)

	runID, err := st.Save(sc.Name, plantLabel(), cfg, result)
	if err != nil {
		return err
	}

	final := result.Final()
	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("ticks: %d\n", result.Ticks)
	fmt.Printf("final: %.1f%% thermal, tavg %.1f F, boron %.0f ppm\n",
		final.ThermalPower*100, final.TavgF, final.BoronPPM)
	if final.Tripped {
		fmt.Printf("tripped: %s at %.1fs from %.1f%% power\n",
			final.TripCause, final.TripTimeS, final.PreTripPower*100)
	}

	if len(result.Events) > 0 {
		fmt.Println("\nevents:")
		for _, ev := range result.Events {
			fmt.Printf("  %9.1fs  %s\n", ev.Time, ev.Name)
		}
	}

	fmt.Println("\nmetrics:")
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.6f\n", name, val)
	}

	if exportPath != "" {
		if exportPath == "-" {
			return storage.ExportJSONStdout(sc.Name, plantLabel(), cfg, result)
		}
		if err := storage.ExportJSON(exportPath, sc.Name, plantLabel(), cfg, result); err != nil {
			return err
		}
		fmt.Printf("exported: %s\n", exportPath)
	}

	return nil
}

func liveScenario(cmd *cobra.Command, args []string) error {
	name := "full-power"
	if len(args) > 0 {
		name = args[0]
	}
	sc, err := resolveScenario(name)
	if err != nil {
		return err
	}
	applyOverrides(cmd, sc)

	plant, err := loadPlant()
	if err != nil {
		return err
	}

	sess, err := buildSession(plant, sc)
	if err != nil {
		return err
	}

	return viz.RunLive(sess, plant, sc.Compression)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tDURATION\tTICK\tTICKS\tEVENTS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.0fs\t%.2fs\t%d\t%d\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Tick,
			run.Ticks,
			len(run.Events),
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}

	if len(series.Times) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d\n\n", len(series.Times))

	columns := args[1:]
	if len(columns) == 0 {
		columns = []string{"neutron", "thermal", "tavg_f", "boron_ppm", "rho_total", "bank_d"}
	}

	for _, col := range columns {
		data, ok := series.Column(col)
		if !ok {
			return fmt.Errorf("unknown column: %s (available: %v)", col, series.Header)
		}

		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(col),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	column := "neutron"
	if len(args) == 2 {
		column = args[1]
	}

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}

	data, ok := series.Column(column)
	if !ok {
		return fmt.Errorf("unknown column: %s (available: %v)", column, series.Header)
	}
	if len(data) < 8 {
		return fmt.Errorf("not enough samples")
	}

	// recording stride sets the sample interval, not the tick
	dt := meta.Tick
	if len(series.Times) >= 2 {
		dt = series.Times[1] - series.Times[0]
	}

	fmt.Printf("oscillation analysis: %s\n", meta.ID)
	fmt.Printf("column: %s\n\n", column)

	ps := analysis.PowerSpectrum(data)
	graph := asciigraph.Plot(ps[:len(ps)/4],
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum"),
	)
	fmt.Println(graph)
	fmt.Println()

	if period, found := analysis.DominantPeriod(data, dt); found {
		fmt.Printf("dominant period: %.0f s (%.2f h)\n", period, period/3600)
	} else {
		fmt.Println("no dominant oscillation")
	}

	return nil
}

func estimateBoron(cmd *cobra.Command, args []string) error {
	plant, err := loadPlant()
	if err != nil {
		return err
	}

	sess, err := sim.NewSession(plant)
	if err != nil {
		return err
	}
	if power > 0 {
		err = sess.InitAtPower(power)
	} else {
		err = sess.InitHotZeroPower()
	}
	if err != nil {
		return err
	}

	est := sess.Reactor().EstimateCriticalBoron()
	s := sess.Snapshot()

	fmt.Printf("power: %.1f%% thermal\n", s.ThermalPower*100)
	fmt.Printf("tavg: %.1f F  fuel: %.0f F  xenon: %+.0f pcm\n",
		s.TavgF, s.FuelTempF, s.Budget.XenonPcm)
	fmt.Printf("critical boron: %.1f ppm (residual %+.2f pcm, %d iterations)\n",
		est.PPM, est.ResidualPcm, est.Iterations)
	if !est.Converged {
		fmt.Println("search did not converge")
	}

	return nil
}

func sweepBoron(cmd *cobra.Command, args []string) error {
	plant, err := loadPlant()
	if err != nil {
		return err
	}

	points, err := sim.SweepCriticalBoron(context.Background(), plant, sweepFrom, sweepTo, sweepPoints)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "POWER\tBORON\tTAVG\tFUEL\tXENON")

	for _, p := range points {
		fmt.Fprintf(w, "%.0f%%\t%.1f ppm\t%.1f F\t%.0f F\t%+.0f pcm\n",
			p.Power*100, p.BoronPPM, p.TavgF, p.FuelTempF, p.XenonPcm)
	}

	return w.Flush()
}

func tuneController(cmd *cobra.Command, args []string) error {
	plant, err := loadPlant()
	if err != nil {
		return err
	}

	gs := optim.New(
		[]string{"deadband", "rate"},
		[][]float64{{0.002, 0.005, 0.01}, {0.5, 1.0, 2.0}},
	)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DEADBAND\tRATE\tTRAVEL\tMISS\tCOST")

	obj := func(ctx context.Context, params map[string]float64) (float64, error) {
		sess, err := sim.NewSession(plant)
		if err != nil {
			return 0, err
		}
		if err := sess.InitHotZeroPower(); err != nil {
			return 0, err
		}

		ctrl := control.NewPowerAscension(tuneTarget)
		ctrl.Deadband = params["deadband"]
		ctrl.MaxRateDPM = params["rate"]
		sess.SetController(ctrl)
		sess.Reactor().SetPowerTarget(tuneTarget)
		sess.AddMetric(metrics.NewRodTravel())
		sess.AddMetric(metrics.NewTripCount())

		result, err := sess.Run(ctx, sim.Config{Tick: 0.5, Duration: tuneTime})
		if err != nil {
			return 0, err
		}

		final := result.Final()
		travel := result.Metrics["rod_travel_steps"]
		miss := math.Abs(final.IndicatedPower - tuneTarget)

		// a trip disqualifies the candidate outright
		cost := travel + miss*1e5
		if result.Metrics["trip_count"] > 0 {
			cost += 1e9
		}

		fmt.Fprintf(w, "%.3f\t%.1f\t%.0f\t%.4f\t%.0f\n",
			params["deadband"], params["rate"], travel, miss, cost)
		return cost, nil
	}

	fmt.Printf("tuning ascension to %.0f%% over %d candidates...\n", tuneTarget*100, gs.Size())
	params, cost, err := gs.Search(context.Background(), obj)
	if err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nbest: deadband %.3f, rate limit %.1f dpm (cost %.0f)\n",
		params["deadband"], params["rate"], cost)
	return nil
}

func svgChart(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}

	columns := args[1:]
	if len(columns) == 0 {
		columns = []string{"neutron", "thermal", "tavg_f", "boron_ppm", "rho_total"}
	}

	svg, err := export.ChartSVG(series, columns)
	if err != nil {
		return err
	}

	out := svgOut
	if out == "" {
		out = runID + ".svg"
	}
	if err := os.WriteFile(out, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", out)

	return nil
}

func benchCore(cmd *cobra.Command, args []string) error {
	plant := config.DefaultPlant()

	durations := []float64{600.0, 3600.0, 14400.0}
	ticks := []float64{0.1, 0.5, 1.0}

	fmt.Println("benchmarking full power steady state")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DURATION\tTICK\tTICKS\tTIME\tTICKS/SEC")

	for _, dur := range durations {
		for _, tk := range ticks {
			sess, err := sim.NewSession(plant)
			if err != nil {
				return err
			}
			sess.SetTick(tk)
			if err := sess.InitAtPower(1.0); err != nil {
				return err
			}

			start := time.Now()
			result, err := sess.Run(context.Background(), sim.Config{
				Tick:        tk,
				Duration:    dur,
				RecordEvery: 100,
			})
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			fmt.Fprintf(w, "%.0fs\t%.2fs\t%d\t%v\t%.0f\n",
				dur, tk, result.Ticks, elapsed, float64(result.Ticks)/elapsed.Seconds())
		}
	}

	return w.Flush()
}

// resolveScenario accepts a canned scenario name or a yaml file path.
func resolveScenario(name string) (*config.Scenario, error) {
	if sc := config.GetScenario(name); sc != nil {
		return sc, nil
	}
	if _, err := os.Stat(name); err == nil {
		return config.LoadScenario(name)
	}
	return nil, fmt.Errorf("unknown scenario: %s (available: %v)", name, config.ListScenarios())
}

func loadPlant() (*config.Plant, error) {
	if configFile == "" {
		return config.DefaultPlant(), nil
	}
	return config.Load(configFile)
}

func plantLabel() string {
	if configFile != "" {
		return configFile
	}
	return "default"
}

// applyOverrides lets explicit CLI flags win over scenario values.
func applyOverrides(cmd *cobra.Command, sc *config.Scenario) {
	if cmd.Flags().Changed("tick") {
		sc.Tick = tick
	}
	if cmd.Flags().Changed("time") {
		sc.Duration = duration
	}
	if cmd.Flags().Changed("compression") {
		sc.Compression = compression
	}
	if cmd.Flags().Changed("init") {
		sc.Init = initMode
	}
	if cmd.Flags().Changed("init-power") {
		sc.InitPower = initPower
	}
	if cmd.Flags().Changed("controller") {
		sc.Controller = controller
	}
	if cmd.Flags().Changed("target") {
		sc.Target = target
	}
}

func buildSession(plant *config.Plant, sc *config.Scenario) (*sim.Session, error) {
	sess, err := sim.NewSession(plant)
	if err != nil {
		return nil, err
	}
	sess.SetTick(sc.Tick)

	switch sc.Init {
	case "cold":
		sess.InitCold()
	case "power":
		if err := sess.InitAtPower(sc.InitPower); err != nil {
			return nil, err
		}
	default:
		if err := sess.InitHotZeroPower(); err != nil {
			return nil, err
		}
	}

	if sc.Controller == "ascension" {
		sess.SetController(control.NewPowerAscension(sc.Target))
		sess.Reactor().SetPowerTarget(sc.Target)
	}

	if len(sc.Actions) > 0 {
		script, err := sim.NewScript(sc.Actions)
		if err != nil {
			return nil, err
		}
		sess.SetScript(script)
	}

	return sess, nil
}
