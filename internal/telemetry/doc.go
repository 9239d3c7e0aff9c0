// Package telemetry provides OpenTelemetry instrumentation for sectionrank.
//
// Traces and metrics are exported over OTLP (gRPC or HTTP/protobuf) when
// enabled. Disabled or degraded instances hand out no-op tracers and meters,
// so instrumented code never has to check.
//
//	tel, err := telemetry.New(ctx, telemetry.FromAppConfig(cfg.Telemetry, version))
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(ctx)
//
//	ctx, span := tel.Tracer("sectionrank/pipeline").Start(ctx, "pipeline.Run")
//	defer span.End()
//
// Tests use NewTestTelemetry, which records spans in memory.
package telemetry
