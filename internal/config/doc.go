// Package config loads FoodIt configuration.
//
// Settings come from three layers, later ones winning: built-in defaults,
// a foodit.json (or foodit.yaml) file and FOODIT_* environment variables.
//
// # Configuration File Structure
//
//	{
//	  "api": {"baseUrl": "http://localhost:8081", "timeout": "10s"},
//	  "live": {"port": 8080, "resumeWindow": "30s"},
//	  "backend": {"port": 8081, "database": "foodit.db", "tokenTtl": "24h"},
//	  "images": {"driver": "s3", "bucket": "foodit-avatars"},
//	  "log": {"level": "info", "format": "json"},
//	  "telemetry": {"endpoint": "localhost:4318"}
//	}
//
// Every field can be overridden from the environment, e.g.
// FOODIT_LIVE_PORT=9000 or FOODIT_BACKEND_JWT_SECRET=....
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    return err
//	}
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
package config
