package commands

import (
	"github.com/spf13/cobra"

	"github.com/pailab/scratchfs/pkg/vfs"
)

var mountsFile string

var rootCmd = &cobra.Command{
	Use:   "scratchfs",
	Short: "Composable virtual filesystem for agent context",
	Long: `scratchfs - a sandboxed virtual filesystem for agent context.

Files live in one virtual namespace served by pluggable backends:
ephemeral in-memory state, real disk directories (optionally sandboxed),
and persistent badger databases. A mount file composes them:

  default: {type: state}
  mounts:
    - prefix: /memory/
      type: badger
      dir: ~/.scratchfs/memory
    - prefix: /workspace/
      type: disk
      root: ./workspace
      sandbox: true

Examples:
  scratchfs --mounts mounts.yaml ls /
  scratchfs --mounts mounts.yaml write /memory/notes.md "remember this"
  scratchfs --mounts mounts.yaml grep "TODO" /workspace
  scratchfs --mounts mounts.yaml glob "**/*.md"`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&mountsFile, "mounts", "m", "", "YAML mount file (defaults to a bare in-memory namespace)")
}

// openBackend builds the backend tree from the --mounts flag.
// The returned close function must be called when the command is done.
func openBackend() (vfs.Backend, func() error, error) {
	cfg := DefaultConfig()
	if mountsFile != "" {
		var err error
		cfg, err = LoadConfig(mountsFile)
		if err != nil {
			return nil, nil, err
		}
	}
	return cfg.Build()
}
