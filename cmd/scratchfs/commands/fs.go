package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/pailab/scratchfs/pkg/vfs"
)

var (
	dirStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6e7681"))
	pathStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#58a6ff"))
)

var lsCmd = &cobra.Command{
	Use:   "ls [path]",
	Short: "List a directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/"
		if len(args) == 1 {
			path = args[0]
		}
		backend, closeFn, err := openBackend()
		if err != nil {
			return err
		}
		defer closeFn()

		infos, err := backend.List(cmd.Context(), path)
		if err != nil {
			return err
		}
		if len(infos) == 0 {
			fmt.Println(dimStyle.Render("(empty)"))
			return nil
		}
		for _, fi := range infos {
			if fi.IsDir {
				fmt.Println(dirStyle.Render(fi.Path))
				continue
			}
			meta := fmt.Sprintf("%8d", fi.Size)
			if !fi.ModTime.IsZero() {
				meta += "  " + fi.ModTime.UTC().Format("2006-01-02 15:04:05")
			}
			fmt.Printf("%s  %s\n", fi.Path, dimStyle.Render(meta))
		}
		return nil
	},
}

var (
	readOffset int
	readLimit  int
)

var readCmd = &cobra.Command{
	Use:   "read <path>",
	Short: "Read a file with line numbers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, closeFn, err := openBackend()
		if err != nil {
			return err
		}
		defer closeFn()

		content, err := backend.Read(cmd.Context(), args[0], readOffset, readLimit)
		if err != nil {
			return err
		}
		fmt.Println(content)
		return nil
	},
}

var writeCmd = &cobra.Command{
	Use:   "write <path> [content]",
	Short: "Create a new file (content from argument or stdin)",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var content string
		if len(args) == 2 {
			content = args[1]
		} else {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			content = string(data)
		}

		backend, closeFn, err := openBackend()
		if err != nil {
			return err
		}
		defer closeFn()

		path, err := backend.Write(cmd.Context(), args[0], content)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", pathStyle.Render(path))
		return nil
	},
}

var editAll bool

var editCmd = &cobra.Command{
	Use:   "edit <path> <old-string> <new-string>",
	Short: "Replace a string in a file",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, closeFn, err := openBackend()
		if err != nil {
			return err
		}
		defer closeFn()

		res, err := backend.Edit(cmd.Context(), args[0], args[1], args[2], editAll)
		if err != nil {
			return err
		}
		fmt.Printf("Edited %s (%d occurrence(s))\n", pathStyle.Render(res.Path), res.Occurrences)
		return nil
	},
}

var grepGlob string

var grepCmd = &cobra.Command{
	Use:   "grep <pattern> [path]",
	Short: "Search file contents with a regular expression",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/"
		if len(args) == 2 {
			path = args[1]
		}
		backend, closeFn, err := openBackend()
		if err != nil {
			return err
		}
		defer closeFn()

		matches, err := backend.Grep(cmd.Context(), args[0], path, grepGlob)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			fmt.Println(dimStyle.Render("no matches"))
			return nil
		}
		for _, m := range matches {
			fmt.Printf("%s%s%s\n", pathStyle.Render(m.Path), dimStyle.Render(fmt.Sprintf(":%d:", m.Line)), m.Text)
		}
		return nil
	},
}

var globCmd = &cobra.Command{
	Use:   "glob <pattern> [path]",
	Short: "Find files by glob pattern",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/"
		if len(args) == 2 {
			path = args[1]
		}
		backend, closeFn, err := openBackend()
		if err != nil {
			return err
		}
		defer closeFn()

		infos, err := backend.Glob(cmd.Context(), args[0], path)
		if err != nil {
			return err
		}
		if len(infos) == 0 {
			fmt.Println(dimStyle.Render("no files found"))
			return nil
		}
		for _, fi := range infos {
			fmt.Println(fi.Path)
		}
		return nil
	},
}

// ExitCode maps protocol errors to distinct exit codes so scripts can
// branch on the failure class without parsing messages.
func ExitCode(err error) int {
	var verr *vfs.Error
	if errors.As(err, &verr) {
		switch verr.Kind {
		case vfs.KindNotFound:
			return 2
		case vfs.KindAlreadyExists:
			return 3
		case vfs.KindSecurityViolation:
			return 4
		}
	}
	return 1
}

func init() {
	readCmd.Flags().IntVar(&readOffset, "offset", 0, "first line to read (0-based)")
	readCmd.Flags().IntVar(&readLimit, "limit", 0, "maximum lines to read (default 2000)")
	editCmd.Flags().BoolVar(&editAll, "all", false, "replace every occurrence")
	grepCmd.Flags().StringVar(&grepGlob, "glob", "", "only search files whose name matches this glob")

	rootCmd.AddCommand(lsCmd, readCmd, writeCmd, editCmd, grepCmd, globCmd)
}
