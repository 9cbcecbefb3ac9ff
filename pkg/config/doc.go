// Package config loads application configuration from environment variables
// into annotated Go structs.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11: a default
// .env file is loaded once per process, and each configuration type is parsed
// at most once and cached for the process lifetime.
//
// # Usage
//
//	type MongoConfig struct {
//	    URL string `env:"MONGODB_URL,required"`
//	}
//
//	var cfg MongoConfig
//	if err := config.Load(&cfg); err != nil {
//	    log.Fatal(err)
//	}
//
// Sentinel errors (ErrParsingConfig, ErrNilPointer) can be matched with
// errors.Is. Reset clears the cache between tests.
package config
