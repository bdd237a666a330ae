package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
)

// Level is a log severity. Higher values are more severe.
type Level int

const (
	TRACE Level = iota
	DEBUG
	INFO
	WARN
	ERROR
)

var levelNames = [...]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l < TRACE || l > ERROR {
		return "LEVEL(" + strconv.Itoa(int(l)) + ")"
	}
	return levelNames[l]
}

// MarshalJSON renders the level by name.
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// ParseLevel accepts level names case-insensitively; WARNING is an alias of WARN.
func ParseLevel(s string) (Level, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "WARNING" {
		return WARN, nil
	}
	for i, n := range levelNames {
		if n == name {
			return Level(i), nil
		}
	}
	return WARN, fmt.Errorf("unknown level: %s", s)
}

// Component names the part of the program a line comes from.
type Component string

const (
	ComponentApp        Component = "app"
	ComponentMenu       Component = "menu"
	ComponentProgress   Component = "progress"
	ComponentResolver   Component = "resolver"
	ComponentDownloader Component = "downloader"
	ComponentClient     Component = "client"
)

// Format selects how entries are rendered.
type Format int

const (
	FormatText Format = iota
	FormatJSON
	FormatColor
)

// Fields carries structured key/value context for an entry.
type Fields = map[string]interface{}

// Config holds logger configuration
type Config struct {
	Level      Level
	Format     Format
	Output     io.Writer
	Components map[Component]bool
	ShowCaller bool
	Timestamp  bool
}

// DefaultConfig logs warnings and errors to stderr. The client component is
// off because it logs every retry.
func DefaultConfig() *Config {
	return &Config{
		Level:  WARN,
		Format: FormatText,
		Output: os.Stderr,
		Components: map[Component]bool{
			ComponentApp:        true,
			ComponentMenu:       true,
			ComponentProgress:   true,
			ComponentResolver:   true,
			ComponentDownloader: true,
			ComponentClient:     false,
		},
	}
}

// Entry is one rendered log record.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     Level     `json:"level"`
	Component Component `json:"component"`
	Message   string    `json:"message"`
	Fields    Fields    `json:"fields,omitempty"`
	Caller    string    `json:"caller,omitempty"`
}

// Logger writes entries for enabled components at or above its level. Its
// configuration is fixed at New.
type Logger struct {
	config Config
	outMu  sync.Mutex
}

// New creates a logger. A nil config means DefaultConfig.
func New(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}
	l := &Logger{config: *config}
	l.config.Components = make(map[Component]bool, len(config.Components))
	for c, on := range config.Components {
		l.config.Components[c] = on
	}
	if l.config.Output == nil {
		l.config.Output = os.Stderr
	}
	return l
}

// WithComponent returns a logger that tags entries with component.
func (l *Logger) WithComponent(component Component) *ComponentLogger {
	return &ComponentLogger{logger: l, component: component}
}

// Enabled reports whether an entry would be written.
func (l *Logger) Enabled(level Level, component Component) bool {
	return level >= l.config.Level && l.config.Components[component]
}

// write must be called exactly two frames below the public level method so
// the caller lookup lands on user code.
func (l *Logger) write(level Level, component Component, message string, fields Fields) {
	if !l.Enabled(level, component) {
		return
	}

	cfg := &l.config

	entry := Entry{
		Timestamp: time.Now(),
		Level:     level,
		Component: component,
		Message:   message,
		Fields:    fields,
	}
	if cfg.ShowCaller {
		// write <- ComponentLogger.emit <- ComponentLogger.<Level> <- caller
		if _, file, line, ok := runtime.Caller(3); ok {
			entry.Caller = filepath.Base(file) + ":" + strconv.Itoa(line)
		}
	}

	var line string
	switch cfg.Format {
	case FormatJSON:
		line = renderJSON(entry)
	case FormatColor:
		line = renderText(entry, cfg.Timestamp, colorPalette)
	default:
		line = renderText(entry, cfg.Timestamp, nil)
	}

	l.outMu.Lock()
	_, _ = io.WriteString(cfg.Output, line+"\n")
	l.outMu.Unlock()
}

const timestampLayout = "2006-01-02 15:04:05"

// palette colours the parts of a text line. A nil palette renders plain text.
type palette struct {
	dim, component, key, value *color.Color
	levels                     map[Level]*color.Color
}

var colorPalette = &palette{
	dim:       color.New(color.FgHiBlack),
	component: color.New(color.FgCyan),
	key:       color.New(color.FgYellow),
	value:     color.New(color.FgGreen),
	levels: map[Level]*color.Color{
		TRACE: color.New(color.FgWhite),
		DEBUG: color.New(color.FgHiBlue),
		INFO:  color.New(color.FgHiGreen),
		WARN:  color.New(color.FgHiYellow),
		ERROR: color.New(color.FgHiRed),
	},
}

func paint(c *color.Color, s string) string {
	if c == nil {
		return s
	}
	return c.Sprint(s)
}

func renderText(e Entry, withTime bool, p *palette) string {
	var dim, comp, key, val, lvl *color.Color
	if p != nil {
		dim, comp, key, val, lvl = p.dim, p.component, p.key, p.value, p.levels[e.Level]
	}

	var b strings.Builder
	if withTime {
		b.WriteString(paint(dim, e.Timestamp.Format(timestampLayout)))
		b.WriteByte(' ')
	}
	b.WriteString(paint(lvl, "["+e.Level.String()+"]"))
	b.WriteByte(' ')
	b.WriteString(paint(comp, "["+string(e.Component)+"]"))
	b.WriteByte(' ')
	b.WriteString(e.Message)
	if e.Caller != "" {
		b.WriteString(" " + paint(dim, "("+e.Caller+")"))
	}
	for _, k := range sortedKeys(e.Fields) {
		b.WriteString(" " + paint(key, k) + "=" + paint(val, quoteValue(e.Fields[k])))
	}
	return b.String()
}

// quoteValue quotes values that would otherwise be ambiguous in a
// space-separated key=value line.
func quoteValue(v interface{}) string {
	s := fmt.Sprint(v)
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

func sortedKeys(fields Fields) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func renderJSON(e Entry) string {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Sprintf(`{"level":"ERROR","message":%q}`, "marshal log entry: "+err.Error())
	}
	return string(data)
}

// ComponentLogger logs on behalf of one component, optionally carrying
// fields added with With.
type ComponentLogger struct {
	logger    *Logger
	component Component
	bound     Fields
}

// With returns a logger that adds fields to every entry. Per-call fields win
// on key conflicts.
func (cl *ComponentLogger) With(fields Fields) *ComponentLogger {
	merged := make(Fields, len(cl.bound)+len(fields))
	for k, v := range cl.bound {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &ComponentLogger{logger: cl.logger, component: cl.component, bound: merged}
}

func (cl *ComponentLogger) Trace(message string, fields ...Fields) { cl.emit(TRACE, message, fields) }
func (cl *ComponentLogger) Debug(message string, fields ...Fields) { cl.emit(DEBUG, message, fields) }
func (cl *ComponentLogger) Info(message string, fields ...Fields)  { cl.emit(INFO, message, fields) }
func (cl *ComponentLogger) Warn(message string, fields ...Fields)  { cl.emit(WARN, message, fields) }
func (cl *ComponentLogger) Error(message string, fields ...Fields) { cl.emit(ERROR, message, fields) }

func (cl *ComponentLogger) emit(level Level, message string, fields []Fields) {
	var merged Fields
	switch {
	case len(fields) == 0:
		merged = cl.bound
	case len(cl.bound) == 0 && len(fields) == 1:
		merged = fields[0]
	default:
		merged = make(Fields, len(cl.bound))
		for k, v := range cl.bound {
			merged[k] = v
		}
		for _, f := range fields {
			for k, v := range f {
				merged[k] = v
			}
		}
	}
	cl.logger.write(level, cl.component, message, merged)
}

var global atomic.Pointer[Logger]

func init() {
	global.Store(New(DefaultConfig()))
}

// SetGlobalLogger replaces the process-wide logger. A nil logger is ignored.
func SetGlobalLogger(logger *Logger) {
	if logger != nil {
		global.Store(logger)
	}
}

// GetGlobalLogger returns the process-wide logger.
func GetGlobalLogger() *Logger {
	return global.Load()
}

// WithComponent returns a component logger bound to the current global
// logger.
func WithComponent(component Component) *ComponentLogger {
	return GetGlobalLogger().WithComponent(component)
}
