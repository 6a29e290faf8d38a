// Command rcbssvis opens the interactive planner visualizer.
package main

import (
	"fmt"
	"os"

	"gioui.org/app"
	"gioui.org/unit"
	"github.com/spf13/cobra"

	"github.com/elektrokombinacija/robust-cbss/internal/config"
	"github.com/elektrokombinacija/robust-cbss/internal/core"
	"github.com/elektrokombinacija/robust-cbss/internal/vis"
)

var (
	instancePath string
	configPath   string
	variantName  string

	rootCmd = &cobra.Command{
		Use:          "rcbssvis",
		Short:        "Visualize robust task sequencing plans and the search tree",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         run,
	}
)

func init() {
	rootCmd.Flags().StringVar(&instancePath, "instance", "", "instance file (default: built-in demo map)")
	rootCmd.Flags().StringVar(&configPath, "config", "", "planner config file (YAML)")
	rootCmd.Flags().StringVar(&variantName, "variant", "", "initial planner variant")
}

func run(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}
	if variantName != "" {
		cfg.Variant = variantName
	}
	if cfg.Variant == config.PrioritizedName {
		return fmt.Errorf("the visualizer traces search trees; %q has none", cfg.Variant)
	}
	v, err := core.ParseVariant(cfg.Variant)
	if err != nil {
		return err
	}

	var inst *core.Instance
	if instancePath != "" {
		if inst, err = config.LoadInstance(instancePath, cfg.DefaultDelay); err != nil {
			return err
		}
		cfg.Apply(inst)
	}

	application := vis.NewApp(inst, v, cfg.Logger(), cfg.SolverOptions()...)
	go func() {
		window := new(app.Window)
		window.Option(
			app.Title("Robust CBSS Visualizer"),
			app.Size(unit.Dp(1400), unit.Dp(900)),
		)
		if err := application.Run(window); err != nil {
			fmt.Fprintln(os.Stderr, "rcbssvis:", err)
			os.Exit(1)
		}
		os.Exit(0)
	}()
	app.Main()
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
