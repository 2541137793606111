// Package config builds the server configuration from CLI flags, following
// the teacher's ConfigManager shape: one getter per logical config group
// rather than exposing the struct directly.
package config

import (
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
)

// Config is the fully resolved configuration for one run of the server.
type Config struct {
	DatabasePath string
	SyslogPort   uint16
	RestPort     uint16
	SNMPPort     uint16
	BatchSize    int
	EnableSyslog bool
	EnableRest   bool
	EnableSNMP   bool
}

const (
	defaultDatabasePath = "logs.db"
	defaultSyslogPort   = 514
	defaultRestPort     = 8080
	defaultSNMPPort     = 162
	defaultBatchSize    = 100
)

// Manager wraps a resolved Config and validates it, matching the teacher's
// ConfigManager interface shape (GetXConfig getters, Validate, Display).
type Manager struct {
	cfg Config
}

// ParseFlags parses args (the command line without the program name) with
// kingpin. A parse failure falls back to the all-defaults configuration
// rather than aborting the process: one malformed flag discards every
// other flag on the command line too, not only the malformed one.
func ParseFlags(args []string) *Manager {
	app := kingpin.New("logcore", "High-throughput log collection and storage service.")

	dbPath := app.Flag("database", "Path to the embedded SQL database file.").
		Short('d').Default(defaultDatabasePath).String()
	syslogPort := app.Flag("syslog-port", "UDP port for the syslog receiver.").
		Default(fmt.Sprint(defaultSyslogPort)).Uint16()
	restPort := app.Flag("rest-port", "TCP port for the HTTP receiver.").
		Default(fmt.Sprint(defaultRestPort)).Uint16()
	snmpPort := app.Flag("snmp-port", "UDP port for the SNMP trap receiver.").
		Default(fmt.Sprint(defaultSNMPPort)).Uint16()
	batchSize := app.Flag("batch-size", "Write queue flush threshold.").
		Default(fmt.Sprint(defaultBatchSize)).Int()
	noSyslog := app.Flag("no-syslog", "Disable the syslog receiver.").Bool()
	noRest := app.Flag("no-rest", "Disable the HTTP receiver.").Bool()
	noSNMP := app.Flag("no-snmp", "Disable the SNMP trap receiver.").Bool()

	if _, err := app.Parse(args); err != nil {
		return &Manager{cfg: defaultConfig()}
	}

	return &Manager{cfg: Config{
		DatabasePath: *dbPath,
		SyslogPort:   *syslogPort,
		RestPort:     *restPort,
		SNMPPort:     *snmpPort,
		BatchSize:    *batchSize,
		EnableSyslog: !*noSyslog,
		EnableRest:   !*noRest,
		EnableSNMP:   !*noSNMP,
	}}
}

func defaultConfig() Config {
	return Config{
		DatabasePath: defaultDatabasePath,
		SyslogPort:   defaultSyslogPort,
		RestPort:     defaultRestPort,
		SNMPPort:     defaultSNMPPort,
		BatchSize:    defaultBatchSize,
		EnableSyslog: true,
		EnableRest:   true,
		EnableSNMP:   true,
	}
}

// NewManager wraps an already-resolved Config, used by tests and by callers
// that build configuration programmatically instead of from CLI flags.
func NewManager(cfg Config) *Manager {
	return &Manager{cfg: cfg}
}

func (m *Manager) DatabasePath() string { return m.cfg.DatabasePath }
func (m *Manager) SyslogPort() uint16   { return m.cfg.SyslogPort }
func (m *Manager) RestPort() uint16     { return m.cfg.RestPort }
func (m *Manager) SNMPPort() uint16     { return m.cfg.SNMPPort }
func (m *Manager) BatchSize() int       { return m.cfg.BatchSize }
func (m *Manager) SyslogEnabled() bool  { return m.cfg.EnableSyslog }
func (m *Manager) RestEnabled() bool    { return m.cfg.EnableRest }
func (m *Manager) SNMPEnabled() bool    { return m.cfg.EnableSNMP }

// Validate checks the resolved configuration for values that would make the
// server impossible to start. It does not fail on defaultable problems,
// matching spec.md's "fall back to per-option default silently" policy for
// the CLI layer itself; Validate instead catches the few values with no
// sane default (an empty database path).
func (m *Manager) Validate() error {
	if m.cfg.DatabasePath == "" {
		return fmt.Errorf("database path must not be empty")
	}
	if m.cfg.BatchSize <= 0 {
		m.cfg.BatchSize = defaultBatchSize
	}
	return nil
}

// DisplayConfig logs the effective configuration at startup.
func (m *Manager) DisplayConfig(logf func(format string, args ...any)) {
	logf("database=%s syslog=%d(%v) rest=%d(%v) snmp=%d(%v) batch_size=%d",
		m.cfg.DatabasePath,
		m.cfg.SyslogPort, m.cfg.EnableSyslog,
		m.cfg.RestPort, m.cfg.EnableRest,
		m.cfg.SNMPPort, m.cfg.EnableSNMP,
		m.cfg.BatchSize)
}

// Exit codes mirror spec.md §6: 0 normal, non-zero on fatal init failure.
const (
	ExitOK    = 0
	ExitFatal = 1
)

// Fatal prints msg to stderr and exits with ExitFatal, matching the
// teacher's os.Exit-on-fatal-init-failure pattern in main.go.
func Fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(ExitFatal)
}
