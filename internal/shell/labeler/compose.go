package labeler

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/distribution/reference"

	"github.com/laebelmaker/laebelmaker/internal/core/compose"
	"github.com/laebelmaker/laebelmaker/internal/core/traefik"
	"github.com/laebelmaker/laebelmaker/internal/shell/loader"
)

// =============================================================================
// Batch Errors
// =============================================================================

// ServiceFailure records why one compose service produced no labels.
type ServiceFailure struct {
	Service string
	Err     error
}

// BatchError collects per-service failures of a compose run.
type BatchError struct {
	Failures []ServiceFailure
}

func (e *BatchError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = fmt.Sprintf("service %s: %v", f.Service, f.Err)
	}
	return strings.Join(parts, "; ")
}

// Unwrap exposes every failure to errors.Is and errors.As.
func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

// =============================================================================
// Compose Source
// =============================================================================

// FromCompose builds one label set per service of the compose file at path.
// When only is non-empty, just those services are handled. Sets for
// services that succeeded are returned alongside a *BatchError describing
// the ones that failed.
func (l *Labeler) FromCompose(ctx context.Context, path string, only []string) ([]traefik.LabelSet, error) {
	spec, err := loader.LoadCompose(path)
	if err != nil {
		return nil, err
	}
	return l.FromComposeSpec(ctx, spec, only)
}

// FromComposeSpec is FromCompose over an already parsed file.
func (l *Labeler) FromComposeSpec(ctx context.Context, spec *compose.ParsedSpec, only []string) ([]traefik.LabelSet, error) {
	services, batch := selectServices(spec, only)

	var sets []traefik.LabelSet
	for _, svc := range services {
		if err := ctx.Err(); err != nil {
			return sets, err
		}

		set, err := l.fromService(ctx, svc)
		if err != nil {
			l.logger.Warn("skipping service", "service", svc.Name, "error", err)
			batch.Failures = append(batch.Failures, ServiceFailure{Service: svc.Name, Err: err})
			continue
		}
		sets = append(sets, set)
	}

	if len(batch.Failures) > 0 {
		return sets, batch
	}
	return sets, nil
}

func selectServices(spec *compose.ParsedSpec, only []string) ([]compose.Service, *BatchError) {
	batch := &BatchError{}
	if len(only) == 0 {
		return spec.Services, batch
	}

	services := make([]compose.Service, 0, len(only))
	seen := make(map[string]bool, len(only))
	for _, name := range only {
		if seen[name] {
			continue
		}
		seen[name] = true

		svc, ok := spec.Service(name)
		if !ok {
			batch.Failures = append(batch.Failures, ServiceFailure{
				Service: name,
				Err: fmt.Errorf("%w: %s (available: %s)",
					compose.ErrServiceNotFound, name, strings.Join(spec.ServiceNames(), ", ")),
			})
			continue
		}
		services = append(services, svc)
	}
	return services, batch
}

func (l *Labeler) fromService(ctx context.Context, svc compose.Service) (traefik.LabelSet, error) {
	if svc.HasTraefikLabels() {
		l.logger.Warn("service already declares traefik labels", "service", svc.Name)
	}

	ports := svc.CandidatePorts()
	if len(ports) == 0 && svc.Image != "" && l.docker != nil {
		imagePorts, err := l.imagePorts(ctx, svc.Image)
		switch {
		case err != nil:
			l.logger.Warn("could not read image ports", "service", svc.Name, "image", svc.Image, "error", err)
		default:
			ports = imagePorts
		}
	}

	return l.complete(ctx, svc.Name, ports)
}

// =============================================================================
// Helpers
// =============================================================================

// ImageBaseName returns the last path element of an image reference without
// registry, tag or digest: "ghcr.io/org/app:1.2" becomes "app".
func ImageBaseName(image string) string {
	named, err := reference.ParseNormalizedNamed(image)
	if err == nil {
		return path.Base(reference.Path(named))
	}

	name, _, _ := strings.Cut(image, "@")
	name = path.Base(name)
	if i := strings.LastIndex(name, ":"); i > 0 {
		name = name[:i]
	}
	return name
}
