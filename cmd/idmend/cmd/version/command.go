// Package version provides the version command.
package version

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/agentstation/idmend/internal/appcontext"
	"github.com/agentstation/idmend/internal/cmd/output"
)

// Info is the build information of the binary.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	Date      string `json:"date" yaml:"date"`
	BuiltBy   string `json:"built_by" yaml:"built_by"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

// NewCommand creates the version command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		GroupID: "management",
		Short:   "Show version information",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := Info{
				Version:   app.Version(),
				Commit:    app.Commit(),
				Date:      app.Date(),
				BuiltBy:   app.BuiltBy(),
				GoVersion: runtime.Version(),
				Platform:  runtime.GOOS + "/" + runtime.GOARCH,
			}
			return output.Write(cmd.OutOrStdout(), app.OutputFormat(), info, func(w io.Writer) {
				fmt.Fprintf(w, "idmend version %s\n", info.Version)
				fmt.Fprintf(w, "commit: %s\n", info.Commit)
				fmt.Fprintf(w, "built: %s\n", info.Date)
				fmt.Fprintf(w, "built by: %s\n", info.BuiltBy)
				fmt.Fprintf(w, "go version: %s\n", info.GoVersion)
				fmt.Fprintf(w, "platform: %s\n", info.Platform)
			})
		},
	}
}
