// Package metrics defines and registers the custom Prometheus metrics of the
// user service. It is the single source of truth for metric names, labels and
// help strings. Metrics register with the default registry on import.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fidcar/user-service/internal/core/domain"
)

const namespace = "users"

// OperationsTotal counts user-management operations by outcome.
// Labels:
//   - operation: list, get, create, update, change_password, delete
//   - result: ok, forbidden, unauthenticated, invalid_credentials, invalid, not_found, error
var OperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operations_total",
		Help:      "Total number of user-management operations, by operation and result.",
	},
	[]string{"operation", "result"},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: ok, invalid_credentials, error
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// RevokedTokensRejectedTotal counts requests refused because their token was revoked.
var RevokedTokensRejectedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "revoked_tokens_rejected_total",
		Help:      "Total number of requests rejected because the bearer token was revoked.",
	},
)

// Result maps an operation error to its result label.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrUserNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// ObserveOperation increments OperationsTotal for op with the outcome of err.
func ObserveOperation(op string, err error) {
	OperationsTotal.WithLabelValues(op, Result(err)).Inc()
}
