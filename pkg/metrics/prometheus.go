package metrics

/* adapted from https://github.com/zsais/go-gin-prometheus
edits:
- logger interface satisfied by *zap.SugaredLogger
- remove push gateway and basic auth
- url label defaults to the route template
*/

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var reqCnt = &Metric{
	ID:          "reqCnt",
	Name:        "req_total",
	Description: "How many HTTP requests processed, partitioned by status code and HTTP method.",
	Type:        "counter_vec",
	Args:        []string{"code", "method", "url", "ref"},
}

var reqDur = &Metric{
	ID:          "reqDur",
	Name:        "req_dur_ms",
	Description: "The HTTP request latencies in milliseconds.",
	Type:        "histogram_vec",
	Args:        []string{"code", "method", "url", "ref"},
}

var resSz = &Metric{
	ID:          "resSz",
	Name:        "resp_sz_bytes",
	Description: "The HTTP response sizes in bytes.",
	Type:        "summary_vec",
	Args:        []string{"code", "method", "url", "ref"},
}

var reqSz = &Metric{
	ID:          "reqSz",
	Name:        "req_sz_bytes",
	Description: "The HTTP request sizes in bytes.",
	Type:        "summary_vec",
	Args:        []string{"code", "method", "url", "ref"},
}

var standardMetrics = []*Metric{reqCnt, reqDur, resSz, reqSz}

const defaultMetricPath = "/metrics"

type Logger interface {
	Errorf(format string, v ...interface{})
	Infow(msg string, keysAndValues ...interface{})
}

// RequestCounterURLLabelMappingFn controls the cardinality of the "url" label.
type RequestCounterURLLabelMappingFn func(c *gin.Context) string

// Prometheus contains the metrics gathered by the instance and its path
type Prometheus struct {
	reqCnt       *prometheus.CounterVec
	reqDur       *prometheus.HistogramVec
	reqSz, resSz *prometheus.SummaryVec

	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer

	MetricsPath             string
	ReqCntURLLabelMappingFn RequestCounterURLLabelMappingFn

	logger Logger
	server *http.Server
}

type NewPrometheusOptions struct {
	Subsystem               string
	MetricsPath             string
	ReqCntURLLabelMappingFn RequestCounterURLLabelMappingFn
	Logger                  Logger
	// Registry defaults to the process-wide default registry. Tests pass a
	// fresh one so repeated construction does not collide.
	Registry *prometheus.Registry
}

// NewPrometheus generates a new set of metrics with a certain subsystem name
func NewPrometheus(options NewPrometheusOptions) *Prometheus {
	p := &Prometheus{
		MetricsPath:             options.MetricsPath,
		ReqCntURLLabelMappingFn: options.ReqCntURLLabelMappingFn,
		logger:                  options.Logger,
		registerer:              prometheus.DefaultRegisterer,
		gatherer:                prometheus.DefaultGatherer,
	}
	if options.Registry != nil {
		p.registerer, p.gatherer = options.Registry, options.Registry
	}
	if p.MetricsPath == "" {
		p.MetricsPath = defaultMetricPath
	}
	if p.ReqCntURLLabelMappingFn == nil {
		p.ReqCntURLLabelMappingFn = func(c *gin.Context) string {
			if fp := c.FullPath(); fp != "" {
				return fp
			}
			return "unmatched"
		}
	}
	p.registerMetrics(options.Subsystem)
	return p
}

func (p *Prometheus) registerMetrics(subsystem string) {
	for _, def := range standardMetrics {
		metric := NewMetric(def, subsystem)
		if err := p.registerer.Register(metric); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				metric = already.ExistingCollector
			} else if p.logger != nil {
				p.logger.Errorf("%s could not be registered in Prometheus, err=%v", def.Name, err)
			}
		}
		switch def {
		case reqCnt:
			p.reqCnt = metric.(*prometheus.CounterVec)
		case reqDur:
			p.reqDur = metric.(*prometheus.HistogramVec)
		case resSz:
			p.resSz = metric.(*prometheus.SummaryVec)
		case reqSz:
			p.reqSz = metric.(*prometheus.SummaryVec)
		}
	}
}

// Handler exposes the gathered metrics.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
}

// Use adds the middleware to e. When listenAddress is empty the metrics
// path is mounted on e as well; otherwise a dedicated server is returned
// and the caller owns its lifecycle.
func (p *Prometheus) Use(e *gin.Engine, listenAddress string) *http.Server {
	e.Use(p.HandlerFunc())
	if listenAddress == "" {
		e.GET(p.MetricsPath, gin.WrapH(p.Handler()))
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle(p.MetricsPath, p.Handler())
	p.server = &http.Server{Addr: listenAddress, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	return p.server
}

// HandlerFunc defines handler function for middleware
func (p *Prometheus) HandlerFunc() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == p.MetricsPath {
			c.Next()
			return
		}

		start := time.Now()
		reqSz := computeApproximateRequestSize(c.Request)

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		elapsed := MillisecondsSince(start)
		resSz := float64(c.Writer.Size())
		url := p.ReqCntURLLabelMappingFn(c)
		ref := c.Request.Header.Get(RefererKey)

		p.reqDur.WithLabelValues(status, c.Request.Method, url, ref).Observe(elapsed)
		p.reqCnt.WithLabelValues(status, c.Request.Method, url, ref).Inc()
		p.reqSz.WithLabelValues(status, c.Request.Method, url, ref).Observe(float64(reqSz))
		p.resSz.WithLabelValues(status, c.Request.Method, url, ref).Observe(resSz)
	}
}

func computeApproximateRequestSize(r *http.Request) int {
	s := 0
	if r.URL != nil {
		s = len(r.URL.Path)
	}
	s += len(r.Method)
	s += len(r.Proto)
	for name, values := range r.Header {
		s += len(name)
		for _, value := range values {
			s += len(value)
		}
	}
	s += len(r.Host)
	if r.ContentLength != -1 {
		s += int(r.ContentLength)
	}
	return s
}
