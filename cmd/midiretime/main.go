// Package main is the entry point for the midiretime CLI
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/james-see/midiretime/pkg/api"
	"github.com/james-see/midiretime/pkg/config"
	"github.com/james-see/midiretime/pkg/converter"
	"github.com/james-see/midiretime/pkg/render"
	"github.com/james-see/midiretime/pkg/tui"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// cli holds flag values and what setup derives from them.
type cli struct {
	configPath string
	renderer   string
	clock      string
	logLevel   string
	outputFile string
	serverPort int

	cfg        config.Config
	logger     *log.Logger
	configured bool
}

func main() {
	c := &cli{}
	if err := newRootCmd(c).Execute(); err != nil {
		logger := c.logger
		if logger == nil {
			logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "midiretime"})
		}
		logger.Error(err)
		os.Exit(c.exitCode(err))
	}
}

func newRootCmd(c *cli) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "midiretime",
		Short: "Decode MIDI files and render them as timed text streams",
		Long: `midiretime decodes Standard MIDI Files, converts tick positions to
seconds using the file's tempo changes, and renders the result as a
diagnostic dump, a rhythm game beatmap, or a synth voice sequence.

Examples:
  midiretime dump song.mid
  midiretime beatmap drums.mid -o level1.txt
  midiretime synth song.mid --clock simultaneous
  midiretime render song.mid --config midiretime.yaml
  midiretime export broken.mid -o fixed.mid
  midiretime tui
  midiretime serve --port 8080`,
		Version:           fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "YAML config file")
	flags.StringVarP(&c.renderer, "renderer", "r", "", "Renderer for the render command ("+strings.Join(config.RendererNames, ", ")+")")
	flags.StringVar(&c.clock, "clock", "", "Clock strategy ("+strings.Join(config.ClockNames, ", ")+")")
	flags.StringVar(&c.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	renderCmd := &cobra.Command{
		Use:   "render <input.mid>",
		Short: "Render with the configured renderer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(c.cfg.Renderer, args[0])
		},
	}
	renderCmd.Flags().StringVarP(&c.outputFile, "output", "o", "", "Output file path, - for stdout")
	rootCmd.AddCommand(renderCmd)

	for _, name := range render.Names() {
		r, _ := render.New(name, config.Default())
		sub := &cobra.Command{
			Use:   name + " <input.mid>",
			Short: r.Description(),
			Long:  fmt.Sprintf("Render with the %s renderer. Without -o the output is written next to the input as <name>%s.", name, r.Extension()),
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.runRender(name, args[0])
			},
		}
		sub.Flags().StringVarP(&c.outputFile, "output", "o", "", "Output file path, - for stdout")
		rootCmd.AddCommand(sub)
	}

	exportCmd := &cobra.Command{
		Use:   "export <input.mid>",
		Short: "Re-encode a MIDI file with one end of track per track",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(args[0])
		},
	}
	exportCmd.Flags().StringVarP(&c.outputFile, "output", "o", "", "Output .mid file path")
	rootCmd.AddCommand(exportCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "tui",
		Short: "Launch interactive terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(c.cfg, c.logger)
		},
	})

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				c.cfg.Server.Port = c.serverPort
				if err := c.cfg.Validate(); err != nil {
					return &converter.UsageError{Err: err}
				}
			}
			return api.StartServer(c.cfg, c.logger)
		},
	}
	serveCmd.Flags().IntVarP(&c.serverPort, "port", "p", 8080, "Server port")
	rootCmd.AddCommand(serveCmd)

	return rootCmd
}

// setup loads the config file, applies flag overrides and builds the
// logger. Every failure here is a usage error.
func (c *cli) setup(cmd *cobra.Command, args []string) error {
	c.configured = true

	cfg, err := config.Load(c.configPath)
	if err != nil {
		return &converter.UsageError{Err: err}
	}
	flags := cmd.Flags()
	if flags.Changed("renderer") {
		cfg.Renderer = c.renderer
	}
	if flags.Changed("clock") {
		cfg.Clock = c.clock
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = c.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return &converter.UsageError{Err: err}
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return &converter.UsageError{Err: err}
	}
	c.cfg = cfg
	c.logger = log.NewWithOptions(os.Stderr, log.Options{
		Level:  level,
		Prefix: "midiretime",
	})
	return nil
}

// exitCode maps err to the process exit status. Errors raised before
// setup ran come from cobra's own argument and flag parsing.
func (c *cli) exitCode(err error) int {
	if !c.configured {
		return int(converter.FailureUsage)
	}
	return converter.ExitCode(err)
}

func (c *cli) getOutputPath(input, defaultExt string) string {
	if c.outputFile != "" {
		return c.outputFile
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + defaultExt
}

func (c *cli) runRender(renderer, input string) error {
	cfg := c.cfg
	cfg.Renderer = renderer
	conv, err := converter.FromConfig(cfg, c.logger)
	if err != nil {
		return err
	}

	if c.outputFile == "-" {
		data, err := os.ReadFile(input)
		if err != nil {
			return &converter.InputError{Path: input, Err: err}
		}
		if err := conv.Render(data, os.Stdout); err != nil {
			if converter.Classify(err) == converter.FailureFormat {
				return err
			}
			return &converter.OutputError{Path: "stdout", Err: err}
		}
		return nil
	}

	return conv.ConvertFile(input, c.getOutputPath(input, conv.GetRenderer().Extension()))
}

func (c *cli) runExport(input string) error {
	conv := converter.New(render.Dump{}, converter.WithLogger(c.logger))
	return conv.ExportFile(input, c.getOutputPath(input, ".clean.mid"))
}
