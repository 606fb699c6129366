package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aoe2bot",
		Name:      "commands_total",
		Help:      "Commands received, by command name.",
	}, []string{"command"})

	audioSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aoe2bot",
		Name:      "audio_sent_total",
		Help:      "Audio clips delivered, by category and source (upload or cache).",
	}, []string{"category", "source"})

	handlerErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "aoe2bot",
		Name:      "handler_errors_total",
		Help:      "Commands that ended in a user-visible error.",
	})
)
