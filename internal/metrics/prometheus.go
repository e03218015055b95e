package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements the Collector interface using Prometheus metrics.
type PrometheusCollector struct {
	connectionsTotal  *prometheus.CounterVec
	connectionsActive *prometheus.GaugeVec

	authAttemptsTotal *prometheus.CounterVec
	commandsTotal     *prometheus.CounterVec

	messagesRetrievedTotal prometheus.Counter
	messagesSubmittedTotal prometheus.Counter
	mediaUploadedTotal     *prometheus.CounterVec
}

// NewPrometheusCollector creates a new PrometheusCollector with all metrics registered.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	c := &PrometheusCollector{
		connectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mop3gw_connections_total",
			Help: "Total number of connections opened, by protocol.",
		}, []string{"protocol"}),
		connectionsActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mop3gw_connections_active",
			Help: "Number of currently active connections, by protocol.",
		}, []string{"protocol"}),

		authAttemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mop3gw_auth_attempts_total",
			Help: "Total number of POP3 login attempts.",
		}, []string{"result"}),

		commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mop3gw_commands_total",
			Help: "Total number of protocol commands processed.",
		}, []string{"protocol", "command"}),

		messagesRetrievedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mop3gw_messages_retrieved_total",
			Help: "Total number of POP3 RETR operations completed.",
		}),
		messagesSubmittedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mop3gw_messages_submitted_total",
			Help: "Total number of SMTP submissions translated into posts.",
		}),
		mediaUploadedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mop3gw_media_uploaded_total",
			Help: "Total number of media attachments uploaded, by delivery mode.",
		}, []string{"mode"}),
	}

	reg.MustRegister(
		c.connectionsTotal,
		c.connectionsActive,
		c.authAttemptsTotal,
		c.commandsTotal,
		c.messagesRetrievedTotal,
		c.messagesSubmittedTotal,
		c.mediaUploadedTotal,
	)

	return c
}

func (c *PrometheusCollector) ConnectionOpened(protocol string) {
	c.connectionsTotal.WithLabelValues(protocol).Inc()
	c.connectionsActive.WithLabelValues(protocol).Inc()
}

func (c *PrometheusCollector) ConnectionClosed(protocol string) {
	c.connectionsActive.WithLabelValues(protocol).Dec()
}

func (c *PrometheusCollector) CommandProcessed(protocol, command string) {
	c.commandsTotal.WithLabelValues(protocol, command).Inc()
}

func (c *PrometheusCollector) AuthAttempt(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.authAttemptsTotal.WithLabelValues(result).Inc()
}

func (c *PrometheusCollector) MessageRetrieved() {
	c.messagesRetrievedTotal.Inc()
}

func (c *PrometheusCollector) MessageSubmitted() {
	c.messagesSubmittedTotal.Inc()
}

func (c *PrometheusCollector) MediaUploaded(mode string) {
	c.mediaUploadedTotal.WithLabelValues(mode).Inc()
}
