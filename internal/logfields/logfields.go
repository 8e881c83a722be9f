package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyPage       = "page"
	KeyPath       = "path"
	KeyHome       = "home"
	KeyExitCode   = "exit_code"
	KeyState      = "state"
	KeyOp         = "op"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Page(p string) slog.Attr         { return slog.String(KeyPage, p) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Home(h string) slog.Attr         { return slog.String(KeyHome, h) }
func ExitCode(code int) slog.Attr     { return slog.Int(KeyExitCode, code) }
func State(s string) slog.Attr        { return slog.String(KeyState, s) }
func Op(op string) slog.Attr          { return slog.String(KeyOp, op) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
