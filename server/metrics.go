package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectionsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rpcframe_server_connections_accepted_total",
		Help: "Total connections accepted by the server engine.",
	})
	requestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rpcframe_server_requests_in_flight",
		Help: "Number of per-request handler tasks currently executing.",
	})
	requestsHandled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rpcframe_server_requests_handled_total",
		Help: "Total requests dispatched to the handler, regardless of outcome.",
	})
	panicsRecovered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rpcframe_server_handler_panics_total",
		Help: "Total handler panics caught and converted to a Status error.",
	})
	decodeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rpcframe_server_decode_errors_total",
		Help: "Total frame decode failures that ended a connection's read loop.",
	})
)

func incRequestsInFlight()     { requestsInFlight.Inc() }
func decRequestsInFlight()     { requestsInFlight.Dec() }
func incRequestsHandled()      { requestsHandled.Inc() }
func incPanicsRecovered()      { panicsRecovered.Inc() }
func incConnectionsAccepted()  { connectionsAccepted.Inc() }
func incDecodeErrors()         { decodeErrors.Inc() }
