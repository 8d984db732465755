package audit

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/gyaneshwarpardhi/easyaudit/internal/config"
)

// BuildSinks opens every sink listed in confs. stdout receives the
// "stdout" sinks. On error, sinks opened so far are closed.
func BuildSinks(confs []config.SinkConf, logger *slog.Logger, stdout io.Writer) (MultiSink, error) {
	sinks := make(MultiSink, 0, len(confs))
	for i, c := range confs {
		switch c.Type {
		case config.SinkLog:
			sinks = append(sinks, NewLogSink(logger))
		case config.SinkStdout:
			sinks = append(sinks, NewJSONWriterSink(stdout))
		case config.SinkFile:
			fs, err := OpenFileSink(c.Path)
			if err != nil {
				_ = sinks.Close()
				return nil, fmt.Errorf("sinks[%d]: %w", i, err)
			}
			sinks = append(sinks, fs)
		default:
			_ = sinks.Close()
			return nil, fmt.Errorf("sinks[%d]: unknown type %q", i, c.Type)
		}
	}
	return sinks, nil
}
