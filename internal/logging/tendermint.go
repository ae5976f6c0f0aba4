// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package logging

import (
	"fmt"

	"github.com/cometbft/cometbft/libs/log"
	"github.com/rs/zerolog"
)

// TendermintZeroLogger is a CometBFT logger implementation that passes
// messages to a Zerolog logger.
type TendermintZeroLogger struct {
	Zerolog zerolog.Logger
	Trace   bool
}

var _ log.Logger = (*TendermintZeroLogger)(nil)

// NewTendermintLogger wraps a zerolog logger, filtering messages below the
// given level.
func NewTendermintLogger(zl zerolog.Logger, level string, trace bool) (*TendermintZeroLogger, error) {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level: %v", err)
	}

	zl = zl.Level(logLevel).With().Timestamp().Logger()
	return &TendermintZeroLogger{zl, trace}, nil
}

func (l *TendermintZeroLogger) Info(msg string, keyVals ...interface{}) {
	l.Zerolog.Info().Fields(getLogFields(keyVals...)).Msg(msg)
}

func (l *TendermintZeroLogger) Error(msg string, keyVals ...interface{}) {
	e := l.Zerolog.Error()
	if l.Trace {
		e = e.Stack()
	}

	e.Fields(getLogFields(keyVals...)).Msg(msg)
}

func (l *TendermintZeroLogger) Debug(msg string, keyVals ...interface{}) {
	l.Zerolog.Debug().Fields(getLogFields(keyVals...)).Msg(msg)
}

func (l *TendermintZeroLogger) With(keyVals ...interface{}) log.Logger {
	return &TendermintZeroLogger{
		Zerolog: l.Zerolog.With().Fields(getLogFields(keyVals...)).Logger(),
		Trace:   l.Trace,
	}
}

func getLogFields(keyVals ...interface{}) map[string]interface{} {
	if len(keyVals)%2 != 0 {
		return nil
	}

	fields := make(map[string]interface{}, len(keyVals))
	for i := 0; i < len(keyVals); i += 2 {
		v := keyVals[i+1]
		if s, ok := v.(fmt.Stringer); ok {
			v = s.String()
		}
		fields[fmt.Sprint(keyVals[i])] = v
	}

	return fields
}
