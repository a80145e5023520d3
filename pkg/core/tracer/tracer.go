// Package tracer 请求级追踪；配置了 zipkin 时上报 span，否则只生成 trace id
package tracer

import (
	"context"

	"stationery/pkg/core/config"
	"stationery/pkg/core/consts"

	json "github.com/json-iterator/go"
	"github.com/openzipkin/zipkin-go"
	"github.com/openzipkin/zipkin-go/model"
	zipkinhttp "github.com/openzipkin/zipkin-go/reporter/http"
	uuid "github.com/satori/go.uuid"
)

// Tracer parent 为上游 X-Trace-Context 头里的 span 上下文（json），为空或无法解析时开新追踪
type Tracer interface {
	StartTrace(ctx context.Context, name, parent string) (context.Context, string, func())
}

// New 未配置 zipkin 或初始化失败时退回 SimpleTracer
func New(cfg config.ZipkinConfig, appName, host string) Tracer {
	if !cfg.Enabled() {
		return SimpleTracer{}
	}
	endpoint, err := zipkin.NewEndpoint(appName, host)
	if err != nil {
		return SimpleTracer{}
	}
	zt, err := zipkin.NewTracer(zipkinhttp.NewReporter(cfg.Url),
		zipkin.WithLocalEndpoint(endpoint),
		zipkin.WithSampler(zipkin.AlwaysSample))
	if err != nil {
		return SimpleTracer{}
	}
	return &ZipkinTracer{tracer: zt, appName: appName}
}

type SimpleTracer struct{}

func (SimpleTracer) StartTrace(ctx context.Context, _, _ string) (context.Context, string, func()) {
	traceID := uuid.NewV4().String()
	return context.WithValue(ctx, consts.TraceKey, traceID), traceID, func() {}
}

type ZipkinTracer struct {
	tracer  *zipkin.Tracer
	appName string
}

func (t *ZipkinTracer) StartTrace(ctx context.Context, name, parent string) (context.Context, string, func()) {
	var opts []zipkin.SpanOption
	if parent != "" {
		var sc model.SpanContext
		if err := json.Unmarshal([]byte(parent), &sc); err == nil {
			opts = append(opts, zipkin.Parent(sc))
		}
	}

	span, ctx := t.tracer.StartSpanFromContext(ctx, t.appName+"."+name, opts...)
	traceID := span.Context().TraceID.String()
	return context.WithValue(ctx, consts.TraceKey, traceID), traceID, span.Finish
}
