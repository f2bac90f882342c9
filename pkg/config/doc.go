// Package config loads the YAML configuration of a relay service.
//
// Values may reference the environment as ${VAR} or ${VAR:-default}:
//
//	queue:
//	  redis_url: ${REDIS_URL}
//	  route: /ems/test
//	database:
//	  url: ${DATABASE_URL:-postgres://localhost:5432/relay}
//	jobs:
//	  enabled: true
//	  schedules:
//	    - name: cleanup
//	      cron: "0 * * * *"
//	      path: /sessions/cleanup
//
// Keys left out keep the values of Default. Validation failures are joined
// with ErrInvalid.
package config
