package makemkv

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"ripwatch/internal/services"
)

// MakeMKV MSG codes, emitted as MSG:code,... lines on stdout in
// --robot mode. Codes >= 5000 are disc/rip-level messages; codes below
// are general informational or I/O-level messages.
const (
	msgReadError            = 2003 // read error (classify by text)
	msgWriteError           = 2019 // write error (fatal if "No such file")
	msgTitleError           = 5003 // single title save failed
	msgRipCompleted         = 5004 // "N titles saved, M failed"
	msgDiscOpenError        = 5010 // can't open disc
	msgEvalExpiredTooOld    = 5021 // app too old (fatal)
	msgRipSummary           = 5037 // copy complete summary
	msgEvalPeriodExpired    = 5052 // eval period warning
	msgEvalExpiredShareware = 5055 // shareware expired (fatal)
	msgBackupFailed         = 5080 // backup mode failed
)

// msgHandler turns MSG lines into stream events and tracks the rip
// outcome. Fatal conditions cancel the subprocess through cancelRip so
// the run stops instead of grinding on a doomed rip.
type msgHandler struct {
	logger    *slog.Logger
	emit      func(Event)
	cancelRip context.CancelCauseFunc

	savedTotal  int
	failedTotal int
	sawResult   bool
	fatalErr    error
	readErrors  int
}

func (h *msgHandler) handle(line string) {
	code := parseMSGCode(line)
	text := parseMSGText(line)

	switch code {
	case msgReadError:
		h.readErrors++
		h.logger.Warn("read error from drive",
			slog.String("classification", classifyReadError(text)),
			slog.Int("read_error_count", h.readErrors),
			slog.String("msg_text", text),
		)
		h.emit(Event{Kind: EventWarning, Message: text})
	case msgWriteError:
		h.logger.Error("write error", slog.String("msg_text", text))
		if strings.Contains(text, "No such file") {
			h.fail(services.Wrap(services.ErrDestinationWrite, "makemkv", "rip", text, nil))
			return
		}
		h.emit(Event{Kind: EventWarning, Message: text})
	case msgTitleError:
		h.logger.Warn("title save failed", slog.String("msg_text", text))
		h.emit(Event{Kind: EventWarning, Message: text})
	case msgRipCompleted:
		saved, failed := parseSavedFailed(line)
		h.sawResult = true
		h.savedTotal += saved
		h.failedTotal += failed
		h.logger.Info("rip result",
			slog.Int("titles_saved", saved),
			slog.Int("titles_failed", failed),
		)
		h.emit(Event{Kind: EventInfo, Message: text})
	case msgDiscOpenError:
		h.logger.Warn("disc open error", slog.String("msg_text", text))
		h.fail(services.Wrap(services.ErrUnreadableMedia, "makemkv", "rip", text, nil))
	case msgEvalExpiredTooOld, msgEvalExpiredShareware:
		h.logger.Error("makemkv license expired",
			slog.Int("msg_code", code),
			slog.String("msg_text", text),
		)
		h.fail(services.Wrap(services.ErrFatalExtraction, "makemkv", "rip", text+" (update or register MakeMKV)", nil))
	case msgRipSummary:
		h.emit(Event{Kind: EventInfo, Message: text})
	case msgEvalPeriodExpired:
		h.logger.Warn("makemkv evaluation period expiring", slog.String("msg_text", text))
		h.emit(Event{Kind: EventInfo, Message: text})
	case msgBackupFailed:
		h.logger.Error("backup failed", slog.String("msg_text", text))
		h.emit(Event{Kind: EventWarning, Message: text})
	default:
		if code >= 5000 {
			h.logger.Debug("disc message", slog.Int("msg_code", code), slog.String("msg_text", text))
		}
	}
}

// fail records the first fatal cause and aborts the subprocess.
func (h *msgHandler) fail(err error) {
	if h.fatalErr == nil {
		h.fatalErr = err
	}
	h.cancelRip(err)
}

// zeroSaved reports whether the tool announced a result that saved
// nothing, which means the disc produced no usable output even though
// the process exited cleanly.
func (h *msgHandler) zeroSaved() bool {
	return h.sawResult && h.savedTotal == 0
}

func classifyReadError(text string) string {
	upper := strings.ToUpper(text)
	switch {
	case strings.Contains(upper, "TRAY OPEN"):
		return "tray_open"
	case strings.Contains(upper, "L-EC UNCORRECTABLE"):
		return "uncorrectable_read"
	case strings.Contains(upper, "HARDWARE ERROR"):
		return "hardware_error"
	case strings.Contains(upper, "MEDIUM ERROR"):
		return "medium_error"
	default:
		return "read_error"
	}
}

// parseMSGCode extracts the numeric code from a MSG line, or -1.
func parseMSGCode(line string) int {
	rest, ok := strings.CutPrefix(line, "MSG:")
	if !ok {
		return -1
	}
	codeStr, _, found := strings.Cut(rest, ",")
	if !found {
		return -1
	}
	code, err := strconv.Atoi(codeStr)
	if err != nil {
		return -1
	}
	return code
}

// parseMSGText extracts the formatted message, the first quoted field.
func parseMSGText(line string) string {
	start := strings.Index(line, `"`)
	if start < 0 {
		return ""
	}
	end := strings.Index(line[start+1:], `"`)
	if end < 0 {
		return ""
	}
	return line[start+1 : start+1+end]
}

// parseSavedFailed extracts the saved and failed counts from a
// MSG:5004 line. The sprintf parameters are the sixth and later
// comma-separated fields; for 5004 they are the saved count then the
// failed count.
func parseSavedFailed(line string) (saved, failed int) {
	payload, ok := strings.CutPrefix(line, "MSG:")
	if !ok {
		return 0, 0
	}

	fieldIdx := 0
	inQuote := false
	start := 0
	var params []string
	capture := func(end int) {
		if fieldIdx >= 5 {
			params = append(params, strings.Trim(strings.TrimSpace(payload[start:end]), `"`))
		}
	}
	for i := 0; i < len(payload); i++ {
		switch payload[i] {
		case '"':
			inQuote = !inQuote
		case ',':
			if !inQuote {
				capture(i)
				fieldIdx++
				start = i + 1
			}
		}
	}
	capture(len(payload))

	if len(params) >= 1 {
		saved, _ = strconv.Atoi(params[0])
	}
	if len(params) >= 2 {
		failed, _ = strconv.Atoi(params[1])
	}
	return saved, failed
}
