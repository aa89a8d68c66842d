package cli

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gantryhq/gantry/pkg/alias"
)

// reposOpts holds the persistent flags shared by all repos subcommands.
type reposOpts struct {
	durable bool   // operate on the durable scope (default)
	session bool   // operate on the session scope
	redis   string // Redis address for the durable backend
	mongo   string // MongoDB URI for the durable backend
}

// scope returns the alias scope selected by the flags.
func (o *reposOpts) scope() alias.Scope {
	if o.session {
		return alias.Session
	}
	return alias.Durable
}

// reposCommand creates the repos command with subcommands for managing
// repository aliases.
func (c *CLI) reposCommand() *cobra.Command {
	var opts reposOpts

	cmd := &cobra.Command{
		Use:   "repos",
		Short: "Manage repository aliases",
		Long: `Register short names for repository locations. An alias may point at one
or more target URLs (or other aliases); install references like
"widgets #core-lib" expand through the alias table.

Durable aliases persist in ` + aliasFile + ` under the config directory, or in
Redis/MongoDB when --redis/--mongo is given. Session aliases shadow durable
ones but last only for the calling process.`,
	}

	cmd.PersistentFlags().BoolVar(&opts.durable, "durable", false, "operate on the durable scope (default)")
	cmd.PersistentFlags().BoolVar(&opts.session, "session", false, "operate on the session scope")
	cmd.PersistentFlags().StringVar(&opts.redis, "redis", "", "back the durable scope with Redis at this address")
	cmd.PersistentFlags().StringVar(&opts.mongo, "mongo", "", "back the durable scope with MongoDB at this URI")
	cmd.MarkFlagsMutuallyExclusive("durable", "session")
	cmd.MarkFlagsMutuallyExclusive("redis", "mongo")

	cmd.AddCommand(c.reposRegisterCommand(&opts))
	cmd.AddCommand(c.reposUnregisterCommand(&opts))
	cmd.AddCommand(c.reposListCommand(&opts))
	cmd.AddCommand(c.reposClearCommand(&opts))

	return cmd
}

// openReposRegistry builds the alias registry for the repos command,
// honoring the backend flags. The returned cleanup closes any backend
// connection.
func openReposRegistry(ctx context.Context, opts *reposOpts) (*alias.Registry, func(), error) {
	cleanup := func() {}
	var durable alias.Store

	switch {
	case opts.redis != "":
		store, err := alias.NewRedisStore(ctx, alias.RedisConfig{Addr: opts.redis})
		if err != nil {
			return nil, nil, err
		}
		durable = store
		cleanup = func() { _ = store.Close() }
	case opts.mongo != "":
		store, err := alias.NewMongoStore(ctx, alias.MongoConfig{URI: opts.mongo})
		if err != nil {
			return nil, nil, err
		}
		durable = store
		cleanup = func() { _ = store.Close(context.Background()) }
	default:
		dir, err := configDir()
		if err != nil {
			return nil, nil, err
		}
		store, err := alias.NewFileStore(filepath.Join(dir, aliasFile))
		if err != nil {
			return nil, nil, err
		}
		durable = store
	}

	return alias.NewRegistry(durable, alias.NewMemStore()), cleanup, nil
}

// reposRegisterCommand creates the "repos register" subcommand.
func (c *CLI) reposRegisterCommand(opts *reposOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "register <alias> <target>...",
		Short: "Map an alias to one or more repository targets",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			reg, cleanup, err := openReposRegistry(ctx, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			name, targets := args[0], args[1:]
			if err := reg.Register(ctx, opts.scope(), name, targets...); err != nil {
				return err
			}
			printSuccess("Registered %s (%s)", name, opts.scope())
			printDetail("targets: %s", strings.Join(targets, ", "))
			if opts.scope() == alias.Session {
				printDetail("session aliases last only for this process")
			}
			return nil
		},
	}
}

// reposUnregisterCommand creates the "repos unregister" subcommand.
func (c *CLI) reposUnregisterCommand(opts *reposOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "unregister <alias>",
		Short: "Remove an alias",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			reg, cleanup, err := openReposRegistry(ctx, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := reg.Unregister(ctx, opts.scope(), args[0]); err != nil {
				return err
			}
			printSuccess("Unregistered %s (%s)", args[0], opts.scope())
			return nil
		},
	}
}

// reposListCommand creates the "repos list" subcommand.
func (c *CLI) reposListCommand(opts *reposOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered aliases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			reg, cleanup, err := openReposRegistry(ctx, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			table, err := reg.List(ctx, opts.scope())
			if err != nil {
				return err
			}
			if len(table) == 0 {
				printInfo("No %s aliases registered", opts.scope())
				return nil
			}

			names := make([]string, 0, len(table))
			for name := range table {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				printKeyValue(name, strings.Join(table[name], ", "))
			}
			printDetail("%d alias(es) in %s scope", len(names), opts.scope())
			return nil
		},
	}
}

// reposClearCommand creates the "repos clear" subcommand.
func (c *CLI) reposClearCommand(opts *reposOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every alias in the selected scope",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			reg, cleanup, err := openReposRegistry(ctx, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := reg.Clear(ctx, opts.scope()); err != nil {
				return err
			}
			printSuccess("Cleared %s aliases", opts.scope())
			return nil
		},
	}
}
