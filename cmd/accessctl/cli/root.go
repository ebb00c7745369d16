package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bizos/bizos/jobs"
)

// Options carries the writers and environment defaults of the command tree.
type Options struct {
	Stdout    io.Writer
	Stderr    io.Writer
	Matrix    string
	RedisAddr string
}

// OptionsFromEnv reads defaults from ACCESS_MATRIX_PATH and REDIS_ADDR.
func OptionsFromEnv() Options {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "127.0.0.1:6379"
	}
	return Options{
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		Matrix:    os.Getenv("ACCESS_MATRIX_PATH"),
		RedisAddr: addr,
	}
}

// NewRootCommand builds the accessctl command tree.
func NewRootCommand(opts Options) *cobra.Command {
	var jsonOutput bool

	root := &cobra.Command{
		Use:           "accessctl",
		Short:         "Inspect the BizOS access matrix and access jobs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(opts.Stdout)
	root.SetErr(opts.Stderr)
	root.PersistentFlags().StringVar(&opts.Matrix, "matrix", opts.Matrix, "Access matrix file (YAML or JSON); built-in matrix when empty")
	root.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print JSON output")

	access := func(cmd *cobra.Command) (*AccessCLI, error) {
		return NewAccessCLI(opts.Matrix, cmd.OutOrStdout(), jsonOutput)
	}

	root.AddCommand(matrixCommand(access), &cobra.Command{
		Use:   "check <role> <permission>",
		Short: "Report whether a role holds a permission",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := access(cmd)
			if err != nil {
				return err
			}
			_, err = c.Check(args[0], args[1])
			return err
		},
	}, &cobra.Command{
		Use:   "tables <role>",
		Short: "List the tables a role may read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := access(cmd)
			if err != nil {
				return err
			}
			_, err = c.Tables(args[0])
			return err
		},
	}, &cobra.Command{
		Use:   "nav <role>",
		Short: "Print the menus and landing page of a role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := access(cmd)
			if err != nil {
				return err
			}
			_, err = c.Nav(args[0])
			return err
		},
	}, jobsCommand(&opts))

	return root
}

func matrixCommand(access func(*cobra.Command) (*AccessCLI, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "matrix",
		Short: "Export or verify the access matrix",
	}

	var outFile string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write the matrix as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := access(cmd)
			if err != nil {
				return err
			}
			if outFile == "" {
				return c.Export(cmd.OutOrStdout())
			}
			f, err := os.Create(outFile)
			if err != nil {
				return err
			}
			if err := c.Export(f); err != nil {
				_ = f.Close()
				return err
			}
			return f.Close()
		},
	}
	export.Flags().StringVarP(&outFile, "file", "f", "", "Write to file instead of stdout")

	var verifyFile string
	verify := &cobra.Command{
		Use:   "verify",
		Short: "Check routes and menus against the matrix",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if verifyFile != "" {
				if err := cmd.Flags().Set("matrix", verifyFile); err != nil {
					return err
				}
			}
			c, err := access(cmd)
			if err != nil {
				return err
			}
			return c.Verify()
		},
	}
	verify.Flags().StringVarP(&verifyFile, "file", "f", "", "Matrix file to verify; same as --matrix")

	cmd.AddCommand(export, verify)
	return cmd
}

func jobsCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Trigger and inspect access jobs",
	}
	cmd.PersistentFlags().StringVar(&opts.RedisAddr, "redis", opts.RedisAddr, "Redis address of the job queue")

	var userID int64
	trigger := &cobra.Command{
		Use:       "trigger <name>",
		Short:     "Enqueue an access job",
		Args:      cobra.ExactArgs(1),
		ValidArgs: jobs.TaskNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == jobs.TaskAccessRoleCacheInvalidate && userID <= 0 {
				return fmt.Errorf("--user is required for %s", args[0])
			}
			c, err := NewJobsCLI(opts.RedisAddr)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			info, err := c.Trigger(cmd.Context(), args[0], userID)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s as %s on %s\n", info.Type, info.ID, info.Queue)
			return nil
		},
	}
	trigger.Flags().Int64Var(&userID, "user", 0, "User whose cached role is dropped")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Print default queue counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := NewJobsCLI(opts.RedisAddr)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			s, err := c.InspectQueue()
			if err != nil {
				return err
			}
			if jsonFlag(cmd) {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(s)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "queue %s: pending=%d active=%d scheduled=%d retry=%d archived=%d paused=%s\n",
				s.Queue, s.Pending, s.Active, s.Scheduled, s.Retry, s.Archived, strconv.FormatBool(s.Paused))
			return nil
		},
	}

	cmd.AddCommand(trigger, stats)
	return cmd
}

func jsonFlag(cmd *cobra.Command) bool {
	v, err := cmd.Flags().GetBool("json")
	return err == nil && v
}
