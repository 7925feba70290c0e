// Package config provides application configuration management.
//
// The config package handles loading and validation of the application's
// configuration from YAML files. It covers server transport settings, the
// managed sandbox's parameters (runtime, image, name prefix, lifetime) and
// logging.
//
// Usage:
//
//	cfg, err := config.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Sandbox image: %s\n", cfg.Sandbox.Image)
package config
