package commands

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapview/internal/cli/output"
)

// BuildInfo identifies a leapview build.
type BuildInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"commit"`
	BuildDate string `json:"built"`
	GoVersion string `json:"go"`
	Platform  string `json:"platform"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(info BuildInfo) *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the leapview version with the commit, build date and Go toolchain it was built from.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, err := NewCommandContextWithoutCatalog(cmd)
			if err != nil {
				return err
			}
			r := cc.Renderer

			info.GoVersion = runtime.Version()
			info.Platform = runtime.GOOS + "/" + runtime.GOARCH
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(info)
			}

			r.Println("leapview v" + info.Version)
			if short {
				return nil
			}
			r.KeyValue("Commit", info.GitCommit)
			r.KeyValue("Built", info.BuildDate)
			r.KeyValue("Go", info.GoVersion)
			r.KeyValue("Platform", info.Platform)
			return nil
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "Print only the version number")
	return cmd
}
