package logs

import (
	"log/slog"
	"os"

	"places/config"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// Params defines the parameters required for the logger
type Params struct {
	fx.In

	Config *config.Config
}

// New builds the application slog.Logger from config. JSON output is
// the default; pretty switches to the text handler for local runs.
func New(params Params) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(params.Config.Env.Log.Level)); err != nil {
		return nil, errors.Wrapf(err, "unknown log level: %s", params.Config.Env.Log.Level)
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if params.Config.Env.Log.Pretty {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), nil
}
