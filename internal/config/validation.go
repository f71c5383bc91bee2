package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// ErrInvalidConfig is returned when validation fails.
var ErrInvalidConfig = errors.New("invalid configuration")

// Is lets errors.Is match ErrInvalidConfig against a ValidationErrors value.
func (e ValidationErrors) Is(target error) bool {
	return target == ErrInvalidConfig && e.HasErrors()
}

// ValidateConfig performs comprehensive validation of the configuration.
func ValidateConfig(c *Config) error {
	var errs ValidationErrors

	if c.Version < 1 || c.Version > Version {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (current: %d)", c.Version, Version),
		})
	}

	errs = append(errs, validateEngine(&c.Engine)...)
	errs = append(errs, validateKeys(&c.Keys)...)
	errs = append(errs, validatePunctuation(&c.Punctuation)...)
	errs = append(errs, validateQuickPhrase(&c.QuickPhrase)...)
	errs = append(errs, validateHistory(&c.History)...)
	errs = append(errs, validateLogging(&c.Logging)...)
	errs = append(errs, validateIBus(&c.IBus)...)
	errs = append(errs, validateMetrics(&c.Metrics)...)

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func validateEngine(e *EngineConfig) ValidationErrors {
	var errs ValidationErrors
	if e.Locale == "" {
		errs = append(errs, *RequiredFieldError("engine.locale"))
	}
	return errs
}

// KnownKeyName reports whether name can be bound to an action. The full
// keysym table lives with the key classifier; this check only rejects
// obviously malformed names.
func KnownKeyName(name string) bool {
	if name == "" || strings.ContainsAny(name, " \t") {
		return false
	}
	return true
}

func validateKeys(k *KeysConfig) ValidationErrors {
	var errs ValidationErrors

	bindings := []struct {
		field string
		names []string
	}{
		{"keys.prev_page", k.PrevPage},
		{"keys.next_page", k.NextPage},
		{"keys.prev_candidate", k.PrevCandidate},
		{"keys.next_candidate", k.NextCandidate},
	}

	seen := make(map[string]string)
	for _, b := range bindings {
		for _, name := range b.names {
			if !KnownKeyName(name) {
				errs = append(errs, ValidationError{
					Field:   b.field,
					Message: fmt.Sprintf("invalid key name %q", name),
				})
				continue
			}
			if isDigitName(name) {
				errs = append(errs, ValidationError{
					Field:   b.field,
					Message: fmt.Sprintf("key %q is reserved for code entry", name),
				})
				continue
			}
			if prev, ok := seen[name]; ok && prev != b.field {
				errs = append(errs, ValidationError{
					Field:   b.field,
					Message: fmt.Sprintf("key %q is already bound in %s", name, prev),
				})
				continue
			}
			seen[name] = b.field
		}
	}

	return errs
}

func isDigitName(name string) bool {
	if len(name) == 1 && name[0] >= '0' && name[0] <= '9' {
		return true
	}
	if len(name) == 4 && strings.HasPrefix(name, "KP_") && name[3] >= '0' && name[3] <= '9' {
		return true
	}
	return false
}

func validatePunctuation(p *PunctuationConfig) ValidationErrors {
	var errs ValidationErrors
	if p.TablePath != "" {
		switch filepath.Ext(p.TablePath) {
		case ".toml", ".json":
		default:
			errs = append(errs, ValidationError{
				Field:   "punctuation.table_path",
				Message: "table must be a .toml or .json file",
			})
		}
	}
	return errs
}

func validateQuickPhrase(q *QuickPhraseConfig) ValidationErrors {
	var errs ValidationErrors
	if !q.Enabled {
		return errs
	}

	if utf8.RuneCountInString(q.Trigger) != 1 {
		errs = append(errs, ValidationError{
			Field:   "quick_phrase.trigger",
			Message: "trigger must be exactly one character",
		})
	} else if r, _ := utf8.DecodeRuneInString(q.Trigger); r >= '0' && r <= '9' {
		errs = append(errs, ValidationError{
			Field:   "quick_phrase.trigger",
			Message: "trigger cannot be a digit",
		})
	}

	if q.MaxCandidates < 1 || q.MaxCandidates > 10 {
		errs = append(errs, *RangeError("quick_phrase.max_candidates", 1, 10))
	}

	return errs
}

func validateHistory(h *HistoryConfig) ValidationErrors {
	var errs ValidationErrors
	if h.Enabled && h.Path == "" {
		errs = append(errs, ValidationError{
			Field:   "history.path",
			Message: "path is required when history is enabled",
		})
	}
	if h.RetentionDays < 0 {
		errs = append(errs, ValidationError{
			Field:   "history.retention_days",
			Message: "retention cannot be negative",
		})
	}
	return errs
}

func validateLogging(l *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid log level: %s (valid: debug, info, warn, error)", l.Level),
		})
	}

	switch l.Format {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid log format: %s (valid: text, json)", l.Format),
		})
	}

	switch l.Output {
	case "stdout", "stderr":
	case "file", "both":
		if l.FilePath == "" {
			errs = append(errs, ValidationError{
				Field:   "logging.file_path",
				Message: "file path is required when output is 'file'",
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.output",
			Message: fmt.Sprintf("invalid log output: %s (valid: stdout, stderr, file, both)", l.Output),
		})
	}

	if l.MaxSizeMB < 1 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_size_mb",
			Message: "max size must be at least 1 MB",
		})
	}
	if l.MaxBackups < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_backups",
			Message: "max backups cannot be negative",
		})
	}
	if l.MaxAgeDays < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_age_days",
			Message: "max age cannot be negative",
		})
	}

	return errs
}

func validateIBus(i *IBusConfig) ValidationErrors {
	var errs ValidationErrors
	if i.BusName == "" {
		errs = append(errs, *RequiredFieldError("ibus.bus_name"))
	} else if !strings.Contains(i.BusName, ".") {
		errs = append(errs, ValidationError{
			Field:   "ibus.bus_name",
			Message: "bus name must contain at least one '.'",
		})
	}
	if i.EngineName == "" {
		errs = append(errs, *RequiredFieldError("ibus.engine_name"))
	}
	if i.LockPath != "" && !filepath.IsAbs(expandPath(i.LockPath)) {
		errs = append(errs, ValidationError{
			Field:   "ibus.lock_path",
			Message: "lock path must be absolute",
		})
	}
	return errs
}

func validateMetrics(m *MetricsConfig) ValidationErrors {
	if m.Listen == "" {
		return nil
	}
	if _, port, err := net.SplitHostPort(m.Listen); err != nil || port == "" {
		return ValidationErrors{{
			Field:   "metrics.listen",
			Message: fmt.Sprintf("invalid listen address %q", m.Listen),
		}}
	}
	return nil
}

// Helper functions

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// IsWarning returns true if this is a non-fatal validation issue.
func (e *ValidationError) IsWarning() bool {
	warningFields := []string{
		"punctuation.table_path",
	}
	for _, f := range warningFields {
		if strings.HasPrefix(e.Field, f) {
			return true
		}
	}
	return false
}

// Warnings returns only warning-level validation errors.
func (e ValidationErrors) Warnings() ValidationErrors {
	var warnings ValidationErrors
	for _, err := range e {
		if err.IsWarning() {
			warnings = append(warnings, err)
		}
	}
	return warnings
}

// Errors returns only error-level validation errors.
func (e ValidationErrors) Errors() ValidationErrors {
	var errs ValidationErrors
	for _, err := range e {
		if !err.IsWarning() {
			errs = append(errs, err)
		}
	}
	return errs
}

// HasErrors returns true if there are any non-warning errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e.Errors()) > 0
}

// RequiredFieldError creates a validation error for a required field.
func RequiredFieldError(field string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: "required field is missing",
	}
}

// RangeError creates a validation error for an out-of-range value.
func RangeError(field string, min, max interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("value must be between %v and %v", min, max),
	}
}
