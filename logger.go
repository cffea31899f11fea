// Copyright 2024 The Confluo Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can
// be found in the LICENSE file.

package confluo

import (
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"
)

// Logger is the logging capability Table accepts via Options,
// grounded on cockroachdb-pebble/internal/base.Logger.
type Logger interface {
	Infof(format string, args ...any)
	Fatalf(format string, args ...any)
}

// DefaultLogger logs to the Go standard library's log package,
// matching pebble's base.DefaultLogger exactly.
type DefaultLogger struct{}

// Infof implements Logger.
func (DefaultLogger) Infof(format string, args ...any) {
	_ = log.Output(2, fmt.Sprintf(format, args...))
}

// Fatalf implements Logger.
func (DefaultLogger) Fatalf(format string, args ...any) {
	_ = log.Output(2, fmt.Sprintf(format, args...))
	os.Exit(1)
}

// ZapLogger adapts a *zap.Logger (or zap.SugaredLogger) to Logger,
// for production deployments that want structured logging, following
// the pervasive zap.Logger use throughout influxdata-influxdb (e.g.
// v1/coordinator/points_writer.go).
type ZapLogger struct {
	L *zap.Logger
}

// NewZapLogger wraps l as a Logger.
func NewZapLogger(l *zap.Logger) *ZapLogger { return &ZapLogger{L: l} }

// Infof implements Logger.
func (z *ZapLogger) Infof(format string, args ...any) {
	z.L.Sugar().Infof(format, args...)
}

// Fatalf implements Logger.
func (z *ZapLogger) Fatalf(format string, args ...any) {
	z.L.Sugar().Fatalf(format, args...)
}
