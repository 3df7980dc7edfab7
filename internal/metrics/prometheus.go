package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SimulationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptsim_simulations_total",
			Help: "Simulation runs by outcome",
		},
		[]string{"outcome"},
	)

	SimulationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "promptsim_simulation_duration_seconds",
			Help:    "Wall-clock duration of one scenario simulation",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)

	ConversationTurnsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "promptsim_conversation_turns_total",
			Help: "Total simulated conversation turns produced",
		},
	)

	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptsim_llm_requests_total",
			Help: "LLM completion calls by status",
		},
		[]string{"status"},
	)

	LLMTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptsim_llm_tokens_used",
			Help: "Total LLM tokens used",
		},
		[]string{"type"},
	)

	SynthesisTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptsim_synthesis_total",
			Help: "Prompt synthesis attempts by status",
		},
		[]string{"status"},
	)

	EvaluationScores = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "promptsim_evaluation_score",
			Help:    "Evaluator scores for completed runs",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)
)

func Init() {
	prometheus.MustRegister(SimulationsTotal)
	prometheus.MustRegister(SimulationDuration)
	prometheus.MustRegister(ConversationTurnsTotal)
	prometheus.MustRegister(LLMRequestsTotal)
	prometheus.MustRegister(LLMTokensUsed)
	prometheus.MustRegister(SynthesisTotal)
	prometheus.MustRegister(EvaluationScores)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
