// Package mongo provides MongoDB connection management for the notification
// service: environment-driven configuration, retrying connect logic, and a
// health check usable from the service's health endpoint.
//
// # Usage
//
//	var cfg mongo.Config
//	config.MustLoad(&cfg)
//
//	db, err := mongo.ConnectDatabase(ctx, cfg, cfg.Database)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Connection failures surface as ErrFailedToConnect and can be matched with
// errors.Is.
package mongo
