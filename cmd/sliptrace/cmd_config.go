package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/nvandessel/sliptrace/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect sliptrace configuration",
		Long: `View the effective sliptrace configuration.

Settings come from the compiled-in defaults, then <root>/.sliptrace/config.yaml
(or --config), then SLIPTRACE_* environment variables.

Examples:
  sliptrace config list                      # Show all settings
  sliptrace config list --json
  SLIPTRACE_STEP_LIMIT=120 sliptrace config list`,
	}

	cmd.AddCommand(newConfigListCmd())
	return cmd
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, root, err := loadSettings(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(cfg)
			}

			source := "(defaults)"
			if p, _ := cmd.Flags().GetString("config"); p != "" {
				source = p
			} else if _, err := os.Stat(config.DefaultPath(root)); err == nil {
				source = config.DefaultPath(root)
			}

			fmt.Fprintf(out, "Configuration %s:\n", source)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Scene:")
			fmt.Fprintf(out, "  scene.start_height:     %g m\n", cfg.Scene.StartHeight)
			fmt.Fprintf(out, "  scene.object_scale:     %g m\n", cfg.Scene.ObjectScale)
			fmt.Fprintf(out, "  scene.finger_scale:     %g m\n", cfg.Scene.FingerScale)
			fmt.Fprintf(out, "  scene.finger_offset_x:  %g m\n", cfg.Scene.FingerOffsetX)
			fmt.Fprintf(out, "  scene.grip_force:       %g N\n", cfg.Scene.GripForce)
			fmt.Fprintf(out, "  scene.gravity_z:        %g m/s^2\n", cfg.Scene.GravityZ)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Friction:")
			fmt.Fprintf(out, "  friction.initial:       %g\n", cfg.Friction.Initial)
			fmt.Fprintf(out, "  friction.hold_steps:    %d\n", cfg.Friction.HoldSteps)
			fmt.Fprintf(out, "  friction.ramp_rate:     %g\n", cfg.Friction.RampRate)
			fmt.Fprintf(out, "  friction.floor:         %g\n", cfg.Friction.Floor)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Camera:")
			fmt.Fprintf(out, "  camera.center:          %d\n", cfg.Camera.Center)
			fmt.Fprintf(out, "  camera.gain:            %g px/m\n", cfg.Camera.Gain)
			fmt.Fprintf(out, "  camera.min:             %d\n", cfg.Camera.Min)
			fmt.Fprintf(out, "  camera.max:             %d\n", cfg.Camera.Max)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Run:")
			fmt.Fprintf(out, "  run.step_limit:         %d\n", cfg.Run.StepLimit)
			fmt.Fprintf(out, "  run.drop_threshold:     %g m\n", cfg.Run.DropThreshold)
			fmt.Fprintf(out, "  run.timestep:           %g s\n", cfg.Run.TimeStep)
			fmt.Fprintf(out, "  run.velocity_iterations: %d\n", cfg.Run.VelocityIterations)
			fmt.Fprintf(out, "  run.position_iterations: %d\n", cfg.Run.PositionIterations)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Output:")
			fmt.Fprintf(out, "  output.trace_path:      %s\n", cfg.Output.TracePath)
			fmt.Fprintf(out, "  output.injection_path:  %s\n", cfg.Output.InjectionPath)
			fmt.Fprintln(out)
			fmt.Fprintf(out, "ledger.enabled:           %v\n", cfg.Ledger.Enabled)
			fmt.Fprintf(out, "logging.level:            %s\n", valueOrDefault(cfg.Logging.Level, "info"))
			return nil
		},
	}
}

// valueOrDefault returns value if non-empty, otherwise returns defaultVal.
func valueOrDefault(value, defaultVal string) string {
	if value == "" {
		return defaultVal
	}
	return value
}
