package healthcheck

import (
	"context"
	"net/http"

	"github.com/alexliesenfeld/health"
)

func Handler(checkFunc func(context.Context) error) http.Handler {
	healthChecker := health.NewChecker(
		health.WithCheck(health.Check{
			Name:  "relay-pipeline-health",
			Check: checkFunc,
		}),
	)

	return health.NewHandler(healthChecker)
}
