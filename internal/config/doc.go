// Package config provides configuration management for the pitch
// evaluation service.
//
// Configuration is loaded from environment variables using the env package,
// after an optional .env file. All values have defaults suitable for local
// development except the LLM API key.
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("HTTP server will listen on %s\n", cfg.GetHTTPAddr())
package config
