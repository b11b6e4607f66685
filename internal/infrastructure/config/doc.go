// Package config loads the classtask configuration: built-in defaults,
// then the YAML file, then CLASSTASK_* environment overrides, validated
// before use.
//
// The JWT secret has no default, must be at least 32 characters, and is
// best supplied through the environment rather than the file.
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.API.Port)
//
// A missing config file is not an error; defaults plus environment
// overrides apply.
package config
