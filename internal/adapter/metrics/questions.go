package metrics

import "github.com/prometheus/client_golang/prometheus"

type QuestionMetrics struct {
	Mutations     *prometheus.CounterVec
	LoginAttempts *prometheus.CounterVec
}

func NewQuestionMetrics(reg prometheus.Registerer) *QuestionMetrics {
	m := &QuestionMetrics{
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "questions",
			Name:      "mutations_total",
			Help:      "Total number of question mutations, by operation and result.",
		}, []string{"operation", "result"}),
		LoginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "login_attempts_total",
			Help:      "Total number of admin login attempts, by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(m.Mutations, m.LoginAttempts)
	return m
}
