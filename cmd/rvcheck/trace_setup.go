package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"rvcheck/internal/trace"
)

// setupTracing inspects trace-related flags, falls back to the [trace]
// section of rvcheck.toml for unset ones, and attaches the tracer to the
// command context. Cleanup is registered on a.
func setupTracing(cmd *cobra.Command, a *app) error {
	flags := cmd.Root().PersistentFlags()

	// Read trace configuration from flags
	traceOutput, err := flags.GetString("trace")
	if err != nil {
		return fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := flags.GetString("trace-level")
	if err != nil {
		return fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	if a.manifest != nil {
		tc := a.manifest.Config.Trace
		if tc.Output != nil && !flags.Changed("trace") {
			traceOutput = *tc.Output
		}
		if tc.Level != nil && !flags.Changed("trace-level") {
			levelStr = *tc.Level
		}
	}
	modeStr, err := flags.GetString("trace-mode")
	if err != nil {
		return fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	formatStr, err := flags.GetString("trace-format")
	if err != nil {
		return fmt.Errorf("failed to get trace-format flag: %w", err)
	}
	ringSize, err := flags.GetInt("trace-ring-size")
	if err != nil {
		return fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	heartbeatInterval, err := flags.GetDuration("trace-heartbeat")
	if err != nil {
		return fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return err
	}
	// If level is off and no output specified, skip tracing
	if level == trace.LevelOff {
		if traceOutput == "" {
			cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
			return nil
		}
		level = trace.LevelPhase
	}
	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return err
	}
	format, err := trace.ParseFormat(formatStr)
	if err != nil {
		return err
	}

	cfg := trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     format,
		Output:     traceWriter(cmd, traceOutput),
		OutputPath: traceOutput,
		RingSize:   ringSize,
		Heartbeat:  heartbeatInterval,
	}
	tracer, err := trace.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create tracer: %w", err)
	}
	a.ring = trace.FindRing(tracer)

	// Attach tracer to context
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))

	var heartbeat *trace.Heartbeat
	if heartbeatInterval > 0 {
		heartbeat = trace.StartHeartbeat(tracer, heartbeatInterval)
	}

	a.cleanups = append(a.cleanups, func() {
		// Stop heartbeat first
		if heartbeat != nil {
			heartbeat.Stop()
		}
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	})
	return nil
}

// traceWriter routes the standard streams through the command so that
// output redirection applies to traces too. Files are opened by trace.New.
func traceWriter(cmd *cobra.Command, output string) io.Writer {
	switch output {
	case "", "-", "stderr":
		return cmd.ErrOrStderr()
	case "stdout":
		return cmd.OutOrStdout()
	}
	return nil
}

// dumpTraceOnPanic writes the ring buffer to w before re-panicking.
func (a *app) dumpTraceOnPanic(w io.Writer) {
	r := recover()
	if r == nil {
		return
	}
	if a.ring != nil {
		fmt.Fprintf(w, "rvcheck: panic: %v\n--- last trace events ---\n", r)
		if err := a.ring.Dump(w, trace.FormatText); err != nil {
			fmt.Fprintf(w, "trace: dump error: %v\n", err)
		}
	}
	panic(r)
}
