package traefik

import (
	"strconv"
)

// =============================================================================
// Traefik Label Generation Functions
// =============================================================================

const (
	secureRouterSuffix = "-https"
	redirectSuffix     = "-redir"
)

// GenerateLabels generates the ordered Traefik labels for a service.
//
// Keys are unqualified; format.Qualify adds the "traefik." prefix. The
// order is fixed:
//
//	enable=true
//	routers.<name>.rule=<rule>
//	routers.<name>.entrypoints=<web>
//	routers.<name>-https.rule=<rule>                          (HTTPS only)
//	routers.<name>-https.entrypoints=<websecure>              (HTTPS only)
//	routers.<name>.middlewares=<name>-redir                   (HTTPS only)
//	middlewares.<name>-redir.redirectscheme.scheme=https      (HTTPS only)
//	routers.<name>-https.tls=true                             (HTTPS only)
//	routers.<name>-https.tls.certresolver=<resolver>          (HTTPS only)
//	services.<name>.loadbalancer.server.port=<port>
//
// Either every label is returned or an error and nil.
func GenerateLabels(cfg ServiceConfig) ([]Label, error) {
	if err := ValidateName(cfg.Name); err != nil {
		return nil, err
	}
	if cfg.Rule.IsZero() {
		return nil, NewValidationError(cfg.Name, "rule", "a hostname or a path is required")
	}
	if cfg.Port <= 0 || cfg.Port > MaxPort {
		return nil, NewValidationError(cfg.Name, "port", "must be between 1 and 65535")
	}
	if cfg.HTTPSRedirect && (cfg.TLSResolver == nil || *cfg.TLSResolver == "") {
		return nil, &ResolverError{Service: cfg.Name, Err: ErrMissingResolver}
	}

	name := cfg.Name
	router := "routers." + name
	ruleExpr := cfg.Rule.String()

	labels := make([]Label, 0, 10)
	add := func(key, value string) {
		labels = append(labels, Label{Key: key, Value: value})
	}

	add("enable", "true")
	add(router+".rule", ruleExpr)
	add(router+".entrypoints", cfg.WebEntrypoint)

	if cfg.HTTPSRedirect {
		secure := router + secureRouterSuffix
		middleware := name + redirectSuffix

		add(secure+".rule", ruleExpr)
		add(secure+".entrypoints", cfg.WebsecureEntrypoint)
		add(router+".middlewares", middleware)
		add("middlewares."+middleware+".redirectscheme.scheme", "https")
		add(secure+".tls", "true")
		add(secure+".tls.certresolver", *cfg.TLSResolver)
	}

	add("services."+name+".loadbalancer.server.port", strconv.Itoa(cfg.Port))

	return labels, nil
}

// Generate builds a ServiceConfig from in and generates its label set.
func Generate(in ServiceInput, discovered *DiscoveredConfig) (LabelSet, error) {
	cfg, err := NewServiceConfig(in, discovered)
	if err != nil {
		return LabelSet{}, err
	}
	labels, err := GenerateLabels(cfg)
	if err != nil {
		return LabelSet{}, err
	}
	return LabelSet{Title: cfg.Name, Labels: labels}, nil
}
