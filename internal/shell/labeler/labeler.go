// Package labeler collects service descriptions from the user, a container,
// an image or a compose file, fills in missing details and generates label
// sets with the traefik core.
package labeler

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/laebelmaker/laebelmaker/internal/core/rule"
	"github.com/laebelmaker/laebelmaker/internal/core/traefik"
	"github.com/laebelmaker/laebelmaker/internal/shell/docker"
)

// ErrDockerUnavailable is returned when a source needs Docker but no client
// was configured.
var ErrDockerUnavailable = errors.New("docker is not available")

// Asker asks the user for missing values. *prompt.Prompter implements it.
// Every call returns ctx.Err() once ctx is done.
type Asker interface {
	String(ctx context.Context, name, def string) (string, error)
	Required(ctx context.Context, name, def string) (string, error)
	Validated(ctx context.Context, name, def string, check func(string) error) (string, error)
	Int(ctx context.Context, name string, def, lo, hi int) (int, error)
	Bool(ctx context.Context, name string, def bool) (bool, error)
	Select(ctx context.Context, item string, options []string) (int, error)
}

// Defaults are values supplied up front, typically from flags. Set fields
// are never asked for and count as explicit for auto-fill.
type Defaults struct {
	URL                 string
	Port                int
	ExactPath           bool
	HTTPSRedirect       *bool
	WebEntrypoint       *string
	WebsecureEntrypoint *string
	TLSResolver         *string
}

// Options configures a Labeler.
type Options struct {
	// Asker is nil in non-interactive mode.
	Asker Asker
	// Docker is nil when no daemon is reachable.
	Docker     docker.Client
	Discovered *traefik.DiscoveredConfig
	Defaults   Defaults
	Logger     *slog.Logger
}

// Labeler turns partial service descriptions into label sets.
type Labeler struct {
	asker      Asker
	docker     docker.Client
	discovered *traefik.DiscoveredConfig
	defaults   Defaults
	logger     *slog.Logger
}

// New creates a Labeler.
func New(opts Options) *Labeler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Labeler{
		asker:      opts.Asker,
		docker:     opts.Docker,
		discovered: opts.Discovered,
		defaults:   opts.Defaults,
		logger:     logger,
	}
}

// =============================================================================
// Completing a Service
// =============================================================================

// complete fills every field of a service named name, offering ports as
// candidates, and generates its labels.
func (l *Labeler) complete(ctx context.Context, name string, ports []int) (traefik.LabelSet, error) {
	name, err := l.resolveName(ctx, name)
	if err != nil {
		return traefik.LabelSet{}, err
	}

	in := traefik.ServiceInput{
		Name:                name,
		WebEntrypoint:       l.defaults.WebEntrypoint,
		WebsecureEntrypoint: l.defaults.WebsecureEntrypoint,
		TLSResolver:         l.defaults.TLSResolver,
	}
	if l.defaults.ExactPath {
		in.PathMatch = traefik.PathMatchExact
	}

	if in.Hostname, in.Path, err = l.resolveURL(ctx, name); err != nil {
		return traefik.LabelSet{}, err
	}
	if in.Port, err = l.resolvePort(ctx, name, ports); err != nil {
		return traefik.LabelSet{}, err
	}
	if in.HTTPSRedirect, err = l.resolveHTTPS(ctx); err != nil {
		return traefik.LabelSet{}, err
	}
	if in.HTTPSRedirect {
		if err := l.resolveTLS(ctx, &in); err != nil {
			return traefik.LabelSet{}, err
		}
	}

	set, err := traefik.Generate(in, l.discovered)
	if err != nil {
		return traefik.LabelSet{}, err
	}

	l.logger.Debug("generated labels",
		"service", set.Title,
		"count", len(set.Labels),
	)
	return set, nil
}

func (l *Labeler) resolveName(ctx context.Context, name string) (string, error) {
	sanitized := traefik.SanitizeName(name)
	if sanitized != "" {
		if sanitized != name {
			l.logger.Info("renamed service for router naming", "from", name, "to", sanitized)
		}
		return sanitized, nil
	}
	if l.asker == nil {
		return "", traefik.NewValidationError(name, "name", "must not be empty")
	}

	return l.asker.Validated(ctx, "deploy_name", "", traefik.ValidateName)
}

func (l *Labeler) resolveURL(ctx context.Context, name string) (hostname, path string, err error) {
	url := l.defaults.URL
	if url == "" {
		url = name
		if l.asker != nil {
			if url, err = l.asker.Required(ctx, "url", name); err != nil {
				return "", "", err
			}
		}
	}

	// An empty result is rejected by traefik.Generate.
	hostname, path = rule.SplitURL(url)
	return hostname, path, nil
}

func (l *Labeler) resolvePort(ctx context.Context, name string, ports []int) (int, error) {
	if l.defaults.Port > 0 {
		return l.defaults.Port, nil
	}

	switch {
	case len(ports) == 1:
		return ports[0], nil
	case len(ports) > 1 && l.asker != nil:
		options := make([]string, len(ports))
		for i, p := range ports {
			options[i] = strconv.Itoa(p)
		}
		idx, err := l.asker.Select(ctx, "port", options)
		if err != nil {
			return 0, err
		}
		return ports[idx], nil
	case len(ports) > 1:
		l.logger.Info("multiple ports found, using the first", "service", name, "ports", ports)
		return ports[0], nil
	}

	if l.asker == nil {
		return 0, traefik.NewValidationError(name, "port", "no port found and none given")
	}
	return l.asker.Int(ctx, "port", 0, 1, traefik.MaxPort)
}

func (l *Labeler) resolveHTTPS(ctx context.Context) (bool, error) {
	if l.defaults.HTTPSRedirect != nil {
		return *l.defaults.HTTPSRedirect, nil
	}
	if l.asker == nil {
		return false, nil
	}
	return l.asker.Bool(ctx, "https_redirection", false)
}

// resolveTLS asks for entrypoints and resolver that were not given
// explicitly, prefilled with the auto-filled values.
func (l *Labeler) resolveTLS(ctx context.Context, in *traefik.ServiceInput) error {
	if l.asker == nil {
		return nil
	}

	web, websecure, resolver := traefik.AutoFill(*in, l.discovered)

	if in.WebEntrypoint == nil {
		answer, err := l.asker.Required(ctx, "web_entrypoint", web)
		if err != nil {
			return err
		}
		in.WebEntrypoint = &answer
	}
	if in.WebsecureEntrypoint == nil {
		answer, err := l.asker.Required(ctx, "websecure_entrypoint", websecure)
		if err != nil {
			return err
		}
		in.WebsecureEntrypoint = &answer
	}
	if in.TLSResolver == nil {
		def := ""
		if resolver != nil {
			def = *resolver
		} else if l.discovered != nil && len(l.discovered.CertResolvers) > 1 {
			l.logger.Info("several certificate resolvers declared, choose one",
				"resolvers", strings.Join(l.discovered.CertResolvers, ", "),
			)
		}
		answer, err := l.asker.Required(ctx, "tls_resolver", def)
		if err != nil {
			return err
		}
		in.TLSResolver = &answer
	}
	return nil
}

// =============================================================================
// Sources
// =============================================================================

// FromUser builds a label set from scratch.
func (l *Labeler) FromUser(ctx context.Context, name string) (traefik.LabelSet, error) {
	if err := ctx.Err(); err != nil {
		return traefik.LabelSet{}, err
	}
	return l.complete(ctx, name, nil)
}

// FromContainer builds a label set for an existing container, offering its
// exposed TCP ports.
func (l *Labeler) FromContainer(ctx context.Context, container string) (traefik.LabelSet, error) {
	if l.docker == nil {
		return traefik.LabelSet{}, ErrDockerUnavailable
	}

	ports, err := l.docker.ContainerPorts(ctx, container)
	if err != nil {
		return traefik.LabelSet{}, err
	}
	return l.complete(ctx, container, ports)
}

// FromImage builds a label set for an image, pulling it when it is not
// present locally. name overrides the router name derived from the image.
func (l *Labeler) FromImage(ctx context.Context, image, name string) (traefik.LabelSet, error) {
	ports, err := l.imagePorts(ctx, image)
	if err != nil {
		return traefik.LabelSet{}, err
	}
	if name == "" {
		name = ImageBaseName(image)
	}
	return l.complete(ctx, name, ports)
}

func (l *Labeler) imagePorts(ctx context.Context, image string) ([]int, error) {
	if l.docker == nil {
		return nil, ErrDockerUnavailable
	}

	exists, err := l.docker.ImageExists(ctx, image)
	if err != nil {
		return nil, err
	}
	if !exists {
		l.logger.Info("pulling image", "image", image)
		if err := l.docker.PullImage(ctx, image); err != nil {
			return nil, err
		}
		l.logger.Info("pulled image", "image", image)
	}

	return l.docker.ImagePorts(ctx, image)
}
