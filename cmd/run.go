package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/nvr-ai/go-busstop/config"
	"github.com/nvr-ai/go-busstop/controller"
	"github.com/nvr-ai/go-busstop/input"
	"github.com/nvr-ai/go-busstop/profiler"
	"github.com/nvr-ai/go-busstop/sink"
	"github.com/nvr-ai/go-busstop/source"
)

var runOpts struct {
	source    string
	points    []string
	chroma    int
	white     int
	producers []string
	policy    string
	selected  string
	sections  int
	history   int
	window    bool
	outDir    string
	progress  bool
	profile   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Analyze a video, capture device or frame directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := applyRunFlags(cmd, &cfg); err != nil {
			return err
		}
		return run(cmd, cfg)
	},
}

// applyRunFlags overrides configuration values with the flags set on cmd.
func applyRunFlags(cmd *cobra.Command, c *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("source") {
		c.Source = runOpts.source
	}
	if flags.Changed("point") {
		points, err := parsePoints(runOpts.points)
		if err != nil {
			return err
		}
		c.Points = points
	}
	if flags.Changed("chroma") {
		c.Tuning.ChromaPercent = runOpts.chroma
	}
	if flags.Changed("white") {
		c.Tuning.WhitePercentile = runOpts.white
	}
	if flags.Changed("producer") {
		c.Pipeline.Producers = runOpts.producers
	}
	if flags.Changed("policy") {
		c.Pipeline.Policy = runOpts.policy
	}
	if flags.Changed("select") {
		c.Pipeline.Select = runOpts.selected
	}
	if flags.Changed("sections") {
		c.Pipeline.Sections = runOpts.sections
	}
	if flags.Changed("history") {
		c.Pipeline.History = runOpts.history
	}
	if flags.Changed("window") {
		c.Output.Window = runOpts.window
	}
	if flags.Changed("out") {
		c.Output.Dir = runOpts.outDir
	}
	if flags.Changed("progress") {
		c.Output.Progress = runOpts.progress
	}
	if flags.Changed("profile") {
		c.Profiler.Enabled = runOpts.profile
	}
	return c.Validate()
}

func run(cmd *cobra.Command, c config.Config) error {
	src, err := source.Open(c.Source)
	if err != nil {
		return err
	}
	defer src.Close()

	collector := input.NewCollector(c.Tuning)
	collector.SetPoints(c.Points)

	var sinks sink.Multi
	if c.Output.Window {
		sinks = append(sinks, sink.NewWindow(collector))
	}
	if c.Output.Dir != "" {
		files, err := sink.NewFiles(sink.FilesOptions{
			Dir:           c.Output.Dir,
			PreviewWidth:  c.Output.PreviewWidth,
			PreviewHeight: c.Output.PreviewHeight,
		})
		if err != nil {
			return err
		}
		sinks = append(sinks, files)
	}
	if counter, ok := src.(source.Counter); ok && c.Output.Progress && !c.Output.Window {
		sinks = append(sinks, sink.NewProgress(counter.Len(), os.Stderr))
	}
	if len(sinks) == 0 {
		sinks = append(sinks, &sink.Null{})
	}
	defer sinks.Close()

	var prof *profiler.Profiler
	if c.Profiler.Enabled {
		prof = profiler.New(log, profiler.Options{
			ReportInterval: c.Profiler.ReportInterval,
			MaxSamples:     c.Profiler.MaxSamples,
		})
		prof.Start()
		defer prof.Report()
		defer prof.Stop()
	}

	ctrl, err := newController(c, prof)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	log.Info("⚙️ configuration",
		"source", c.Source,
		"points", len(c.Points),
		"producers", c.Pipeline.Producers,
		"policy", c.Pipeline.Policy,
		"sections", c.Pipeline.Sections,
		"chroma_percent", c.Tuning.ChromaPercent,
		"white_percentile", c.Tuning.WhitePercentile,
		"window", c.Output.Window,
		"out", c.Output.Dir,
	)

	if err := ctrl.Run(cmd.Context(), src, sinks, collector); err != nil {
		return err
	}

	h := ctrl.History()
	if latest, ok := h.Latest(); ok {
		log.Info("📊 run summary",
			"retained", h.Len(),
			"mean_ratio", h.MeanRatio(),
			"last_frame", latest.FrameID,
			"last_sections", latest.Sections,
		)
	}
	return nil
}

func newController(c config.Config, prof *profiler.Profiler) (*controller.Controller, error) {
	producers, err := c.Producers()
	if err != nil {
		return nil, err
	}
	policy, err := controller.PolicyByName(c.Pipeline.Policy, c.Pipeline.Select)
	if err != nil {
		return nil, err
	}
	return controller.New(controller.Options{
		Producers:   producers,
		Policy:      policy,
		Sections:    c.Pipeline.Sections,
		HistorySize: c.Pipeline.History,
		Profiler:    prof,
		Logger:      log,
	})
}

func init() {
	f := runCmd.Flags()
	f.StringVarP(&runOpts.source, "source", "s", source.DefaultTarget, "Video file, device id, frame directory or image")
	f.StringArrayVarP(&runOpts.points, "point", "p", nil, "Platform corner as x,y; repeat four times")
	f.IntVar(&runOpts.chroma, "chroma", input.DefaultTuning.ChromaPercent, "Chroma threshold in percent")
	f.IntVar(&runOpts.white, "white", input.DefaultTuning.WhitePercentile, "White brightness percentile")
	f.StringSliceVar(&runOpts.producers, "producer", nil, "Mask producers to run")
	f.StringVar(&runOpts.policy, "policy", "select", "Mask fusion policy: select, union or intersect")
	f.StringVar(&runOpts.selected, "select", "", "Producer kept by the select policy")
	f.IntVar(&runOpts.sections, "sections", controller.DefaultSections, "Number of platform sections")
	f.IntVar(&runOpts.history, "history", 30, "Number of recent results retained")
	f.BoolVar(&runOpts.window, "window", true, "Show the display window")
	f.StringVarP(&runOpts.outDir, "out", "o", "", "Directory receiving mask and preview PNGs")
	f.BoolVar(&runOpts.progress, "progress", true, "Show a progress bar for headless runs")
	f.BoolVar(&runOpts.profile, "profile", false, "Log periodic stage timing reports")

	rootCmd.AddCommand(runCmd)
}
