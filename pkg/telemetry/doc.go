// Package telemetry provides observability instrumentation for stackmigrate.
//
// The package integrates structured logging (zerolog), distributed tracing
// (OpenTelemetry), and metrics (Prometheus) into a unified system for
// monitoring analysis and validation runs.
//
// # Usage
//
// Initialize telemetry at application startup:
//
//	cfg := telemetry.DefaultConfig()
//	cfg.ServiceName = "stackmigrate"
//
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(context.Background())
//
// Component loggers carry structured fields through an analysis run:
//
//	logger := tel.Logger.NewComponentLogger("extractor").
//	    WithStackName("OrdersStack")
//	logger.Warnf("dependency cycle detected: %s -> %s", from, to)
//
// Spans wrap the expensive phases of a validation:
//
//	ctx, span := tel.Tracer.StartValidationSpan(ctx, stackName, validationID)
//	defer span.End()
package telemetry
