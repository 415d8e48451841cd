package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"brainmask/internal/logger"
	"brainmask/internal/models"
	"brainmask/pkg/batch"
	"brainmask/pkg/config"
	"brainmask/pkg/segmentation"
	"brainmask/pkg/shape"
	"brainmask/pkg/volumeio"
)

type rootOptions struct {
	configPath string
	skipReport string
	summary    string
	previewDir string
	policy     string
	model      string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "brainmask [target-dir]",
		Short: "Write a brain mask next to every NIfTI scan in a directory",
		Long: "brainmask recursively looks for .nii and .nii.gz scans, normalizes them, " +
			"runs the segmentation model and writes <name>_mask.<ext> next to each scan.",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd, args)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "brainmask.yaml", "YAML configuration file (defaults apply if missing)")
	flags.StringVar(&opts.skipReport, "skip-report", "", "file listing scans without a mask")
	flags.StringVar(&opts.summary, "summary", "", "CSV summary of processed scans")
	flags.StringVar(&opts.previewDir, "preview-dir", "", "directory for PNG mask overlays")
	flags.StringVar(&opts.policy, "policy", "", "resize policy: any (either dimension differs) or both")
	flags.StringVar(&opts.model, "model", "", "segmentation model: threshold or onnx")
	flags.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")

	cmd.AddCommand(newInitConfigCmd(), newInspectCmd())
	return cmd
}

// load reads the config file and applies the command line on top of it
func (o *rootOptions) load(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}

	if len(args) == 1 {
		cfg.Input.TargetDir = args[0]
	}
	overrides := []struct {
		flag  string
		value string
		dst   *string
	}{
		{"skip-report", o.skipReport, &cfg.Output.SkipReport},
		{"summary", o.summary, &cfg.Output.Summary},
		{"preview-dir", o.previewDir, &cfg.Output.PreviewDir},
		{"policy", o.policy, &cfg.Shape.Policy},
		{"model", o.model, &cfg.Model.Kind},
		{"log-level", o.logLevel, &cfg.Output.LogLevel},
	}
	for _, ov := range overrides {
		if cmd.Flags().Changed(ov.flag) {
			*ov.dst = ov.value
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	level, err := logger.ParseLevel(cfg.Output.LogLevel)
	if err != nil {
		return err
	}
	log := logger.NewConsoleLogger(level)

	policy, err := shape.ParsePolicy(cfg.Shape.Policy)
	if err != nil {
		return err
	}
	filter, err := shape.ParseFilter(cfg.Shape.Filter)
	if err != nil {
		return err
	}

	files, err := batch.Discover(cfg.Input.TargetDir, cfg.Input.Extensions, cfg.Input.MaskSuffix)
	if err != nil {
		return fmt.Errorf("failed to search %s: %w", cfg.Input.TargetDir, err)
	}

	fmt.Fprintf(stdout, "Found %d NIFTI files\n", len(files))
	if len(files) == 0 {
		fmt.Fprintln(stdout, "No NIFTI files found, exiting")
		return nil
	}

	resolution := models.Size{Height: cfg.Model.Resolution.Height, Width: cfg.Model.Resolution.Width}
	log.Info("main", "loading model", map[string]interface{}{"kind": cfg.Model.Kind, "resolution": resolution.String()})
	model, err := segmentation.New(segmentation.Options{
		Kind:       cfg.Model.Kind,
		Resolution: resolution,
		Foreground: uint16(cfg.Model.Foreground),
		ONNX: segmentation.ONNXOptions{
			ModelPath:   cfg.Model.ONNX.Path,
			LibraryPath: cfg.Model.ONNX.LibraryPath,
			InputName:   cfg.Model.ONNX.InputName,
			OutputName:  cfg.Model.ONNX.OutputName,
			InputScale:  float32(cfg.Model.ONNX.InputScale),
			Threshold:   float32(cfg.Model.ONNX.Threshold),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}
	defer model.Close()

	driver := batch.NewDriver(batch.Params{
		Extensions: cfg.Input.Extensions,
		MaskSuffix: cfg.Input.MaskSuffix,
		Policy:     policy,
		Resizer:    &shape.Resizer{Filter: filter},
		PreviewDir: cfg.Output.PreviewDir,
	}, model, log)

	start := time.Now()
	report := driver.Run(ctx, files)
	log.Info("main", "batch finished", map[string]interface{}{
		"processed": len(report.Processed),
		"skipped":   len(report.Skipped),
		"seconds":   time.Since(start).Seconds(),
	})

	if err := batch.WriteSkipReport(cfg.Output.SkipReport, report.Skipped); err != nil {
		log.Error("main", err, nil)
	}
	if cfg.Output.Summary != "" {
		if err := batch.WriteSummary(cfg.Output.Summary, report.Processed); err != nil {
			log.Error("main", err, nil)
		}
	}

	if len(report.Skipped) > 0 {
		fmt.Fprintf(stdout, "Skipped %d images, the model can only work with %s images\n",
			len(report.Skipped), resolution)
	}
	return nil
}

func newInitConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config <path>",
		Short: "Write the default configuration to a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.CreateDefaultConfigFile(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Default configuration written to %s\n", args[0])
			return nil
		},
	}
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <scan>...",
		Short: "Print the dimensions and voxel spacing of scans",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				info, err := volumeio.Inspect(path)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", path, info)
			}
			return nil
		},
	}
}
