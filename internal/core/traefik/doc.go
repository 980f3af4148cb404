// Package traefik provides pure functions for generating Traefik reverse proxy labels.
//
// This package contains the functional core: it validates a service
// description, fills entrypoint and certificate-resolver gaps from a
// discovered proxy configuration, and emits an ordered list of labels.
// Nothing here performs I/O, and every value is safe to share between
// goroutines once constructed.
//
// # Functions
//
//   - NewServiceConfig: Validate input, build the match rule, apply auto-fill
//   - AutoFill: Resolve entrypoints and resolver from explicit and discovered values
//   - GenerateLabels: Emit the ordered label list for a ServiceConfig
//   - Generate: NewServiceConfig followed by GenerateLabels
//
// # Usage
//
//	set, err := traefik.Generate(traefik.ServiceInput{
//	    Name:          "whoami",
//	    Hostname:      "whoami.example.com",
//	    Port:          80,
//	    HTTPSRedirect: true,
//	}, discovered)
//	if err != nil {
//	    return err
//	}
//	for _, l := range set.Labels {
//	    fmt.Println(format.Qualify(l))
//	}
package traefik
