package health

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeanpaul/medremind/internal/alert"
	"github.com/jeanpaul/medremind/internal/config"
	"github.com/jeanpaul/medremind/internal/store"
	"github.com/jeanpaul/medremind/internal/store/codec"
)

type Status struct {
	Name    string
	OK      bool
	Detail  string
	Error   string
	Latency time.Duration
}

// Check runs every diagnostic against cfg. It never modifies saved state.
func Check(ctx context.Context, cfg *config.Config) []Status {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	checks := []struct {
		name string
		fn   func(context.Context, *config.Config) (string, error)
	}{
		{"config", checkConfig},
		{"data directory", checkDataDir},
		{"saved state", checkState},
		{"alert", checkAlert},
	}
	out := make([]Status, 0, len(checks))
	for _, c := range checks {
		start := time.Now()
		detail, err := c.fn(ctx, cfg)
		s := Status{Name: c.name, OK: err == nil, Detail: detail, Latency: time.Since(start)}
		if err != nil {
			s.Error = friendlyError(err)
		}
		out = append(out, s)
	}
	return out
}

// Healthy reports whether every check passed.
func Healthy(statuses []Status) bool {
	for _, s := range statuses {
		if !s.OK {
			return false
		}
	}
	return true
}

func checkConfig(_ context.Context, cfg *config.Config) (string, error) {
	if cfg.Source == "" {
		return fmt.Sprintf("no config file, using defaults (create %s to customise)", config.Path()), nil
	}
	return cfg.Source, nil
}

func checkDataDir(_ context.Context, cfg *config.Config) (string, error) {
	dir := filepath.Dir(cfg.DataPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	f, err := os.CreateTemp(dir, ".medremind-doctor-*")
	if err != nil {
		return "", err
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return dir + " is writable", nil
}

func checkState(ctx context.Context, cfg *config.Config) (string, error) {
	c, err := codec.Open(cfg.Backend, cfg.DataPath)
	if err != nil {
		return "", err
	}
	defer c.Close()
	snap, err := c.Load(ctx)
	if errors.Is(err, store.ErrNoState) {
		return fmt.Sprintf("%s (%s): nothing saved yet", cfg.DataPath, cfg.Backend), nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s (%s): %d medications, next id %d",
		cfg.DataPath, cfg.Backend, len(snap.Medications), snap.NextID), nil
}

func checkAlert(_ context.Context, cfg *config.Config) (string, error) {
	switch cfg.Alert.Mode {
	case alert.ModeSilent:
		return "silent, reminders are printed only", nil
	case alert.ModeBell:
		return "terminal bell", nil
	}
	cmd, err := alert.ParseCommand(cfg.Alert.Command, cfg.Alert.Duration)
	if err != nil {
		return "", err
	}
	if !cmd.Available() {
		return "", fmt.Errorf("%s not found on PATH, reminders will fall back to the terminal bell", cmd.Name)
	}
	return fmt.Sprintf("%s for %s", strings.Join(append([]string{cmd.Name}, cmd.Args...), " "), cmd.Duration), nil
}

func friendlyError(err error) string {
	msg := err.Error()
	if errors.Is(err, os.ErrPermission) {
		return "permission denied (check ownership of the data directory)"
	}
	if strings.Contains(msg, "read-only file system") {
		return "read-only file system"
	}
	if strings.Contains(msg, "timeout") {
		return "timed out opening the database (is another medremind running?)"
	}
	return msg
}
