package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"cloud.google.com/go/storage"
	"github.com/airbusgeo/cogeo"
	"github.com/airbusgeo/godal"
	"github.com/airbusgeo/osio"
	"github.com/airbusgeo/osio/gcs"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var log = logrus.New()

// cliConfig holds the knobs read from the environment and from the optional
// COGEO_CONFIG yaml file.
type cliConfig struct {
	InMemoryThreshold int64  `yaml:"in_memory_threshold"`
	NumThreads        int    `yaml:"num_threads"`
	CacheBlockSize    string `yaml:"cache_block_size"`
	NumCachedBlocks   int    `yaml:"num_cached_blocks"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var verbose bool
	cfg := cliConfig{
		InMemoryThreshold: cogeo.DefaultInMemoryThreshold,
		CacheBlockSize:    "512k",
		NumCachedBlocks:   100,
	}
	cmd := &cobra.Command{
		Use:   "cogeo",
		Short: "Cloud Optimized GeoTIFF creation and validation",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log.SetOutput(os.Stderr)
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}
			if err := loadConfig(&cfg); err != nil {
				return err
			}
			godal.RegisterAll()
			if hasGSArg(args) {
				if err := registerGS(cmd.Context(), cfg); err != nil {
					return fmt.Errorf("register gs:// handler: %w", err)
				}
			}
			return nil
		},
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	cmd.AddCommand(newCreateCommand(&cfg), newValidateCommand(), newInfoCommand())
	return cmd
}

// loadConfig layers the yaml file named by COGEO_CONFIG, then single-value
// environment overrides, on top of the defaults.
func loadConfig(cfg *cliConfig) error {
	if path := os.Getenv("COGEO_CONFIG"); path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if v := os.Getenv("IN_MEMORY_THRESHOLD"); v != "" {
		threshold, err := strconv.ParseInt(v, 10, 64)
		if err != nil || threshold <= 0 {
			return fmt.Errorf("invalid IN_MEMORY_THRESHOLD %q", v)
		}
		cfg.InMemoryThreshold = threshold
	}
	return nil
}

func hasGSArg(args []string) bool {
	for _, a := range args {
		if strings.HasPrefix(a, "gs://") {
			return true
		}
	}
	return false
}

// registerGS wires a cloud storage range reader as the gs:// VSI handler so
// inputs can be read straight from a bucket.
func registerGS(ctx context.Context, cfg cliConfig) error {
	stcl, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("storage.newclient: %w", err)
	}
	gcsh, err := gcs.Handle(ctx, gcs.GCSClient(stcl))
	if err != nil {
		return fmt.Errorf("gcs.handle: %w", err)
	}
	gcsa, err := osio.NewAdapter(gcsh,
		osio.BlockSize(cfg.CacheBlockSize),
		osio.NumCachedBlocks(cfg.NumCachedBlocks))
	if err != nil {
		return fmt.Errorf("osio.new: %w", err)
	}
	return godal.RegisterVSIHandler("gs://", gcsa)
}

func newValidateCommand() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "validate DATASET",
		Short: "check that a GeoTIFF has a cloud optimized internal layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []cogeo.ValidateOption
			if strict {
				opts = append(opts, cogeo.Strict())
			}
			report, err := cogeo.Validate(args[0], opts...)
			if err != nil {
				return err
			}
			for _, w := range report.Warnings {
				log.Warnf("%s: %s", args[0], w)
			}
			for _, e := range report.Errors {
				log.Errorf("%s: %s", args[0], e)
			}
			if report.Valid {
				fmt.Printf("%s is a valid cloud optimized GeoTIFF\n", args[0])
			} else {
				fmt.Printf("%s is NOT a valid cloud optimized GeoTIFF\n", args[0])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as errors")
	return cmd
}
