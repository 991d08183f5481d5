// Package cli implements the fioso command-line interface.
//
// The root command loads configuration, builds the module namespace and
// exposes one subcommand per module:
//   - store: fetch and normalize one (domain, provider) pair
//   - ai: send a prompt through the AI gateway
//   - report: probe everything and render a stability report
//   - modules: list the loaded modules
//
// All commands support --verbose (-v) for debug-level logging; the logger is
// carried on the command context.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"fioso/internal/ai"
	"fioso/internal/config"
	"fioso/internal/httpx"
	"fioso/internal/logging"
	"fioso/internal/modules"
	"fioso/internal/report"
	"fioso/internal/store"
)

// CLI holds the state shared by the commands of one invocation.
type CLI struct {
	stdout io.Writer
	stderr io.Writer

	verbose    bool
	unstable   bool
	configPath string

	cfg   config.Config
	ns    *modules.Namespace
	extra []modules.Option
}

// New creates a CLI writing results to stdout and logs to stderr. options are
// appended to the namespace configuration built from the loaded config.
func New(stdout, stderr io.Writer, options ...modules.Option) *CLI {
	return &CLI{stdout: stdout, stderr: stderr, extra: options}
}

// RootCommand builds the command tree.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "fioso",
		Short:         "Query game stock trackers and AI providers",
		Version:       modules.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.New(c.stderr, logging.Level(c.verbose))
			cmd.SetContext(logging.WithLogger(cmd.Context(), logger))
			return c.load(cmd)
		},
	}
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)

	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (.json or .toml)")
	root.PersistentFlags().BoolVar(&c.unstable, "unstable", false, "use the longer AI request timeout")

	root.AddCommand(c.storeCommand())
	root.AddCommand(c.aiCommand())
	root.AddCommand(c.reportCommand())
	root.AddCommand(c.modulesCommand())
	return root
}

func (c *CLI) load(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("unstable") {
		cfg.Runtime.Unstable = c.unstable
	}
	c.cfg = cfg

	httpClient := httpx.New(cfg.RequestTimeout())
	options := []modules.Option{
		modules.WithDispatcher(store.NewDispatcher(store.WithHTTPClient(httpClient))),
		modules.WithHarnessOptions(
			report.WithHTTPClient(httpClient),
			report.WithProbeTimeout(cfg.ProbeTimeout()),
			report.WithNetworkCheck(cfg.Report.NetworkURL, 0),
		),
		modules.WithAIOptions(ai.WithHTTPClient(httpx.New(0))),
	}
	c.ns = modules.Load(modules.Runtime{Unstable: cfg.Runtime.Unstable}, append(options, c.extra...)...)
	logging.FromContext(cmd.Context()).Debug("loaded", "config", c.configPath, "unstable", cfg.Runtime.Unstable)
	return nil
}

func (c *CLI) storeCommand() *cobra.Command {
	var test bool
	cmd := &cobra.Command{
		Use:   "store [domain] [provider]",
		Short: "Fetch one normalized stock feed",
		Example: `  fioso store gag growgardengg
  fioso store bloxfruit fandom
  fioso store --test`,
		Args: func(cmd *cobra.Command, args []string) error {
			if test {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			req := modules.Request{TestMode: test}
			if !test {
				req.Domain, req.Provider = args[0], args[1]
			}
			res, err := c.ns.Call(cmd.Context(), modules.Store, req)
			if err != nil {
				return err
			}
			return c.emit(res, test)
		},
	}
	cmd.Flags().BoolVar(&test, "test", false, "probe every registered pair")
	return cmd
}

func (c *CLI) aiCommand() *cobra.Command {
	var test bool
	cmd := &cobra.Command{
		Use:   "ai [type] [model] [prompt...]",
		Short: "Send a prompt to an AI provider",
		Example: `  fioso ai gemini gemini-2.0-flash "what is in stock?"
  fioso ai cloudflare @cf/meta/llama-3-8b-instruct '{"messages":[{"role":"user","content":"hi"}]}'
  fioso ai --test`,
		Args: func(cmd *cobra.Command, args []string) error {
			if test {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.MinimumNArgs(3)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			req := modules.Request{
				TestMode:   test,
				Cloudflare: c.cfg.CloudflareCredentials(),
				Gemini:     c.cfg.GeminiCredentials(),
			}
			if !test {
				req.AIType, req.Model = args[0], args[1]
				req.Prompt = promptArg(strings.Join(args[2:], " "))
			}
			res, err := c.ns.Call(cmd.Context(), modules.AI, req)
			if err != nil {
				return err
			}
			return c.emit(res, test)
		},
	}
	cmd.Flags().BoolVar(&test, "test", false, "probe every configured provider")
	return cmd
}

// promptArg treats a JSON object argument as a pre-built request body.
func promptArg(s string) any {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "{") && json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed)
	}
	return s
}

func (c *CLI) reportCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Probe every store pair and configured AI provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.ns.Call(cmd.Context(), modules.Report, modules.Request{
				Cloudflare: c.cfg.CloudflareCredentials(),
				Gemini:     c.cfg.GeminiCredentials(),
			})
			if err != nil {
				return err
			}
			return c.emit(res, !asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw report")
	return cmd
}

func (c *CLI) modulesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: "List the loaded modules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(c.stdout, renderModules(c.ns.List()))
			return nil
		},
	}
}

// emit prints reports as a table when pretty is set and everything else as
// indented JSON.
func (c *CLI) emit(v any, pretty bool) error {
	if r, ok := v.(report.Report); ok && pretty {
		banner(c.stdout)
		fmt.Fprint(c.stdout, renderReport(r))
		return nil
	}
	enc := json.NewEncoder(c.stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}
