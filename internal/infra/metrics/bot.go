package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		botCommandsTotal,
		botSendErrorsTotal,
	)
}

var (
	botCommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Total bot commands handled, by command and result.",
		},
		[]string{"command", "result"}, // result: 'ok', 'user_error', 'error', 'rate_limited'
	)

	botSendErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_send_errors_total",
			Help: "Total failures to send a Telegram message.",
		},
	)
)

func IncBotCommand(command, result string) {
	botCommandsTotal.WithLabelValues(command, result).Inc()
}

func IncBotSendError() { botSendErrorsTotal.Inc() }
