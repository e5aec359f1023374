package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/resload/internal/manifest"
	"github.com/leapstack-labs/resload/pkg/resload"
)

// NewIDCommand creates the id command.
func NewIDCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "id <js|css> <url>...",
		Short: "Print the element identity of resources",
		Long: `Print the identity resload gives each (type, url) pair. The identity is the
id of the element that carries the resource and the topic its callbacks
wait on.`,
		Example: `  resload id js /assets/app.js /assets/vendor.js`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := resload.Kind(args[0])
			if !kind.Valid() {
				return fmt.Errorf("%w, got %q", manifest.ErrInvalidKind, args[0])
			}

			rows := make([][]any, 0, len(args)-1)
			for _, url := range args[1:] {
				id, _ := resload.Identity(kind, url)
				rows = append(rows, []any{string(kind), url, id})
			}
			return NewCommandContext(cmd).Renderer.Table([]string{"type", "url", "identity"}, rows)
		},
	}
}
