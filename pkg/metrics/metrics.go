// Package metrics exposes process counters in Prometheus text format.
package metrics

import (
	"io"

	vm "github.com/VictoriaMetrics/metrics"
)

var (
	PurchasesRecorded   = vm.NewCounter(`presale_purchases_recorded_total`)
	PurchasesDuplicate  = vm.NewCounter(`presale_purchases_duplicate_total`)
	PurchasesCompleted  = vm.NewCounter(`presale_purchases_completed_total`)
	PurchasesFailed     = vm.NewCounter(`presale_purchases_failed_total`)
	LedgerErrors        = vm.NewCounter(`presale_ledger_errors_total`)
	ConfigDecodeErrors  = vm.NewCounter(`presale_config_decode_errors_total`)
	WebhookRejected     = vm.NewCounter(`presale_webhook_rejected_total`)
	LiveFeedSubscribers = vm.NewCounter(`presale_live_feed_subscribers`)
)

// RequestDuration returns the latency summary for one route.
func RequestDuration(method, route string) *vm.Summary {
	return vm.GetOrCreateSummary(`presale_http_request_duration_seconds{method="` + method + `",route="` + route + `"}`)
}

// RequestCount returns the request counter for one route and status class.
func RequestCount(method, route string, status int) *vm.Counter {
	class := "5xx"
	switch {
	case status < 300:
		class = "2xx"
	case status < 400:
		class = "3xx"
	case status < 500:
		class = "4xx"
	}
	return vm.GetOrCreateCounter(`presale_http_requests_total{method="` + method + `",route="` + route + `",status="` + class + `"}`)
}

// Write dumps all registered metrics, including Go runtime ones.
func Write(w io.Writer) {
	vm.WritePrometheus(w, true)
}
