package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/laebelmaker/laebelmaker/internal/core/format"
	"github.com/laebelmaker/laebelmaker/internal/core/traefik"
	"github.com/laebelmaker/laebelmaker/internal/shell/docker"
	"github.com/laebelmaker/laebelmaker/internal/shell/labeler"
	"github.com/laebelmaker/laebelmaker/internal/shell/loader"
	"github.com/laebelmaker/laebelmaker/internal/shell/prompt"
)

// dockerPingTimeout bounds the reachability check before Docker is used.
const dockerPingTimeout = 5 * time.Second

// app holds the process streams and the Docker client factory.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// newDocker defaults to connecting to a real daemon.
	newDocker func(ctx context.Context, host string) (docker.Client, error)
}

// options are the parsed command-line flags.
type options struct {
	configPath          string
	interactive         bool
	container           string
	image               string
	format              string
	traefikConfig       string
	services            []string
	url                 string
	port                int
	https               bool
	exactPath           bool
	webEntrypoint       string
	websecureEntrypoint string
	resolver            string
	noInput             bool
}

func newRootCmd(a *app) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "laebelmaker [FILE...]",
		Short: "Generate Traefik labels",
		Long: `laebelmaker generates Traefik routing labels for a service described
interactively, by a running container, by an image or by a compose file.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.generate(cmd, opts, args)
		},
	}
	cmd.SetVersionTemplate(fmt.Sprintf("laebelmaker %s (built %s)\n", Version, BuildTime))

	flags := cmd.Flags()
	flags.BoolVarP(&opts.interactive, "interactive", "i", false, "use interactive mode")
	flags.StringVarP(&opts.container, "container", "c", "", "generate labels for a given container on the system")
	flags.StringVar(&opts.image, "image", "", "generate labels for an image, pulling it if needed")
	flags.StringVarP(&opts.format, "format", "f", "", fmt.Sprintf("set output format, one of: [%s]", strings.Join(format.Names(), ", ")))
	flags.StringVarP(&opts.traefikConfig, "traefik-config", "t", "", "Traefik static configuration (yaml or toml) to read entrypoints and resolvers from")
	flags.StringArrayVarP(&opts.services, "service", "s", nil, "only generate labels for this compose service (repeatable)")
	flags.StringVar(&opts.url, "url", "", "URL to route, as host[/path]")
	flags.IntVar(&opts.port, "port", 0, "port the service listens on")
	flags.BoolVar(&opts.https, "https", false, "redirect HTTP to HTTPS")
	flags.BoolVar(&opts.exactPath, "exact-path", false, "match the URL path exactly instead of as a prefix")
	flags.StringVar(&opts.webEntrypoint, "web-entrypoint", "", "HTTP entrypoint name")
	flags.StringVar(&opts.websecureEntrypoint, "websecure-entrypoint", "", "HTTPS entrypoint name")
	flags.StringVar(&opts.resolver, "resolver", "", "TLS certificate resolver name")
	flags.BoolVar(&opts.noInput, "no-input", false, "never prompt, fail when information is missing")
	flags.StringVar(&opts.configPath, "config", "", "path to config file")

	return cmd
}

// =============================================================================
// Generation
// =============================================================================

func (a *app) generate(cmd *cobra.Command, opts *options, files []string) error {
	if !opts.interactive && opts.container == "" && opts.image == "" && len(files) == 0 {
		return cmd.Help()
	}

	cfg, err := LoadConfig(opts.configPath)
	if err != nil {
		return &RunError{Op: "load config", Err: err, ExitCode: ExitConfigError}
	}
	logger := SetupLogger(cfg, a.stderr)

	formatName := cfg.Output.Format
	if cmd.Flags().Changed("format") {
		formatName = opts.format
	}
	formatter, err := format.Lookup(formatName)
	if err != nil {
		return &RunError{Op: "select format", Err: err, ExitCode: ExitConfigError}
	}

	var discovered *traefik.DiscoveredConfig
	traefikPath := cfg.Traefik.Config
	if opts.traefikConfig != "" {
		traefikPath = opts.traefikConfig
	}
	if traefikPath != "" {
		if discovered, err = loader.LoadStaticConfig(traefikPath); err != nil {
			return &RunError{Op: "load traefik config", Err: err, ExitCode: ExitConfigError}
		}
		logger.Debug("loaded traefik config",
			"path", traefikPath,
			"entrypoints", len(discovered.Entrypoints),
			"resolvers", discovered.CertResolvers,
		)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var dockerClient docker.Client
	if !opts.interactive {
		dockerClient, err = a.connectDocker(ctx, cfg.Docker.Host)
		switch {
		case err != nil && (opts.container != "" || opts.image != ""):
			return &RunError{Op: "connect to docker", Err: err, ExitCode: ExitDockerError}
		case err != nil:
			logger.Warn("docker unavailable, image ports will not be inspected", "error", err)
		default:
			defer dockerClient.Close()
		}
	}

	var asker labeler.Asker
	if !opts.noInput {
		p := a.prompter()
		if opts.interactive || p.Interactive() {
			asker = p
		} else {
			logger.Debug("stdin is not a terminal, not prompting")
		}
	}

	l := labeler.New(labeler.Options{
		Asker:      asker,
		Docker:     dockerClient,
		Discovered: discovered,
		Defaults:   defaultsFrom(cmd, opts, cfg),
		Logger:     logger,
	})

	sets, failed := a.collect(ctx, l, opts, files, logger)
	if err := ctx.Err(); err != nil {
		return &RunError{Op: "generate", Err: err, ExitCode: ExitGenerateError}
	}

	out, err := format.Render(sets, formatter)
	if err != nil {
		return &RunError{Op: "render labels", Err: err, ExitCode: ExitGenerateError}
	}
	if out == "" {
		fmt.Fprintln(a.stderr, "Failed to produce output.")
		fmt.Fprintln(a.stderr, "Try running: laebelmaker --help")
		return &RunError{Op: "generate", ExitCode: ExitGenerateError}
	}

	fmt.Fprint(a.stdout, out)
	if failed {
		return &RunError{Op: "generate", ExitCode: ExitGenerateError}
	}
	return nil
}

// collect runs the first selected source. It reports whether any service
// failed; failures are logged.
func (a *app) collect(ctx context.Context, l *labeler.Labeler, opts *options, files []string, logger *slog.Logger) ([]traefik.LabelSet, bool) {
	single := func(set traefik.LabelSet, err error, source string) ([]traefik.LabelSet, bool) {
		if err != nil {
			logger.Error("failed to generate labels", "source", source, "error", err)
			return nil, true
		}
		return []traefik.LabelSet{set}, false
	}

	switch {
	case opts.interactive:
		set, err := l.FromUser(ctx, "")
		return single(set, err, "interactive")
	case opts.container != "":
		set, err := l.FromContainer(ctx, opts.container)
		return single(set, err, opts.container)
	case opts.image != "":
		set, err := l.FromImage(ctx, opts.image, "")
		return single(set, err, opts.image)
	}

	var sets []traefik.LabelSet
	failed := false
	for _, file := range files {
		if !loader.HasYAMLExtension(file) {
			logger.Error("unsupported file, expected a compose .yml or .yaml", "file", file)
			failed = true
			continue
		}

		fileSets, err := l.FromCompose(ctx, file, opts.services)
		sets = append(sets, fileSets...)
		if err != nil {
			var batch *labeler.BatchError
			if errors.As(err, &batch) {
				for _, f := range batch.Failures {
					logger.Error("failed to generate labels", "file", file, "service", f.Service, "error", f.Err)
				}
			} else {
				logger.Error("failed to read compose file", "file", file, "error", err)
			}
			failed = true
		}
	}
	return sets, failed
}

func (a *app) connectDocker(ctx context.Context, host string) (docker.Client, error) {
	if a.newDocker != nil {
		return a.newDocker(ctx, host)
	}

	pingCtx, cancel := context.WithTimeout(ctx, dockerPingTimeout)
	defer cancel()

	cli, err := docker.NewDockerClient(pingCtx, host)
	if err != nil {
		return nil, err
	}
	if err := cli.Ping(pingCtx); err != nil {
		cli.Close()
		return nil, err
	}
	return cli, nil
}

func (a *app) prompter() *prompt.Prompter {
	if f, ok := a.stdin.(*os.File); ok && f == os.Stdin {
		return prompt.NewStdio()
	}
	return prompt.New(a.stdin, a.stderr)
}

// defaultsFrom merges flags over config file defaults. Only flags the user
// set count as explicit.
func defaultsFrom(cmd *cobra.Command, opts *options, cfg *Config) labeler.Defaults {
	d := labeler.Defaults{
		URL:       opts.url,
		Port:      opts.port,
		ExactPath: opts.exactPath,
	}

	flags := cmd.Flags()
	if flags.Changed("https") {
		https := opts.https
		d.HTTPSRedirect = &https
	}
	d.WebEntrypoint = explicit(flags.Changed("web-entrypoint"), opts.webEntrypoint, cfg.Defaults.WebEntrypoint)
	d.WebsecureEntrypoint = explicit(flags.Changed("websecure-entrypoint"), opts.websecureEntrypoint, cfg.Defaults.WebsecureEntrypoint)
	d.TLSResolver = explicit(flags.Changed("resolver"), opts.resolver, cfg.Defaults.TLSResolver)
	return d
}

func explicit(changed bool, flagValue, configValue string) *string {
	switch {
	case changed:
		return traefik.StringPtr(flagValue)
	case configValue != "":
		return traefik.StringPtr(configValue)
	default:
		return nil
	}
}
