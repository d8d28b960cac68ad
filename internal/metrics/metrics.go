// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーやワーカーから利用する。
type MetricsCollector interface {
	RecordLogin()
	RecordRegistration()
	RecordMessageSent()
	RecordEnrollment()
	RecordTicketCreated()
	RecordMailSent(kind string)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	logins        prometheus.Counter
	registrations prometheus.Counter
	messagesSent  prometheus.Counter
	enrollments   prometheus.Counter
	tickets       prometheus.Counter
	mailsSent     *prometheus.CounterVec
	httpStatus    *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "academia_logins_total",
			Help: "ログイン成功の合計数",
		}),
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "academia_registrations_total",
			Help: "新規登録の合計数",
		}),
		messagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "academia_messages_sent_total",
			Help: "送信されたチャットメッセージの合計数",
		}),
		enrollments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "academia_enrollments_total",
			Help: "受講登録の合計数",
		}),
		tickets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "academia_tickets_created_total",
			Help: "作成されたサポートチケットの合計数",
		}),
		mailsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "academia_mails_sent_total",
			Help: "種別ごとの送信メール数",
		}, []string{"kind"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "academia_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.logins,
		c.registrations,
		c.messagesSent,
		c.enrollments,
		c.tickets,
		c.mailsSent,
		c.httpStatus,
	)

	return c
}

// RecordLogin はログイン成功を記録する。
func (c *Collector) RecordLogin() {
	c.logins.Inc()
}

// RecordRegistration は新規登録を記録する。
func (c *Collector) RecordRegistration() {
	c.registrations.Inc()
}

// RecordMessageSent はチャットメッセージ送信を記録する。
func (c *Collector) RecordMessageSent() {
	c.messagesSent.Inc()
}

// RecordEnrollment は受講登録を記録する。
func (c *Collector) RecordEnrollment() {
	c.enrollments.Inc()
}

// RecordTicketCreated はチケット作成を記録する。
func (c *Collector) RecordTicketCreated() {
	c.tickets.Inc()
}

// RecordMailSent は種別付きでメール送信を記録する。
func (c *Collector) RecordMailSent(kind string) {
	c.mailsSent.WithLabelValues(kind).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// SetupMetricsRoute はPrometheusメトリクス公開用のHTTPハンドラーを返す。
func SetupMetricsRoute(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
