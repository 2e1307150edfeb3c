// Package main implements the SSH server that serves the inventory TUI.
package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	gossh "golang.org/x/crypto/ssh"

	"github.com/JJCAR01/UX/internal/app"
	"github.com/JJCAR01/UX/internal/auth"
	"github.com/JJCAR01/UX/internal/config"
	"github.com/JJCAR01/UX/internal/inventory"
	invlog "github.com/JJCAR01/UX/internal/logging"
	"github.com/JJCAR01/UX/internal/tui"
)

const shutdownTimeout = 5 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", "err", err)
	}

	logger, err := invlog.New(os.Stderr, cfg.LogLevel, "invssh")
	if err != nil {
		log.Fatal("failed to create logger", "err", err)
	}

	// Ensure host key exists
	if err := ensureHostKey(logger, cfg.SSHHostKeyPath); err != nil {
		logger.Fatal("failed to ensure host key", "err", err)
	}

	// Load allowlist if in allowlist mode
	var allowlist *auth.Allowlist
	if cfg.SSHAuthMode == config.AuthModeAllowlist {
		allowlist, err = auth.LoadAllowlist(cfg.AllowlistPath)
		if err != nil {
			if errors.Is(err, auth.ErrAllowlistNotFound) {
				logger.Info("creating empty allowlist", "path", cfg.AllowlistPath)
				if err := auth.CreateEmptyAllowlist(cfg.AllowlistPath); err != nil {
					logger.Fatal("failed to create allowlist", "err", err)
				}
				logger.Warn("add your SSH public key to the allowlist and restart", "path", cfg.AllowlistPath)
				os.Exit(1)
			}
			logger.Fatal("failed to load allowlist", "err", err)
		}
		if allowlist.Len() == 0 {
			logger.Warn("allowlist is empty, no connections will be accepted", "path", cfg.AllowlistPath)
		}
		logger.Info("loaded allowlist", "keys", allowlist.Len())
	} else {
		logger.Warn("running in PUBLIC mode, anyone can connect")
	}

	// One API client shared by every session
	client := inventory.NewClient(cfg.APIURL, inventory.WithTimeout(cfg.APITimeout), inventory.WithLogger(logger))

	// Create SSH server options
	opts := []ssh.Option{
		wish.WithAddress(cfg.SSHAddr),
		wish.WithHostKeyPath(cfg.SSHHostKeyPath),
		wish.WithMiddleware(
			bubbletea.Middleware(func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
				sessionLog := logger.With("user", s.User(), "remote", s.RemoteAddr().String())
				ctrl := app.New(client, app.Options{
					PerPage:  cfg.ItemsPerPage,
					CacheTTL: cfg.CacheTTL(),
					Logger:   sessionLog,
				})
				model := tui.NewModel(ctrl, tui.Options{
					Teams:     cfg.Teams,
					ExportDir: cfg.ExportDir,
					Timeout:   cfg.APITimeout,
				})
				return model, []tea.ProgramOption{tea.WithAltScreen()}
			}),
			activeterm.Middleware(),
			logging.MiddlewareWithLogger(logger),
		),
	}

	// Add authentication based on mode
	if allowlist != nil {
		opts = append(opts, wish.WithPublicKeyAuth(func(_ ssh.Context, key ssh.PublicKey) bool {
			return allowlist.Allows(key)
		}))
	} else {
		opts = append(opts, wish.WithPublicKeyAuth(func(ssh.Context, ssh.PublicKey) bool {
			return true
		}))
	}

	// Always disable password auth
	opts = append(opts, wish.WithPasswordAuth(func(ssh.Context, string) bool {
		return false
	}))

	server, err := wish.NewServer(opts...)
	if err != nil {
		logger.Fatal("failed to create SSH server", "err", err)
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	// SIGHUP reloads the allowlist without dropping sessions
	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	go func() {
		for range reload {
			if allowlist == nil {
				continue
			}
			if err := allowlist.Reload(); err != nil {
				logger.Error("allowlist reload failed", "err", err)
				continue
			}
			logger.Info("allowlist reloaded", "keys", allowlist.Len())
		}
	}()

	logger.Info("starting SSH server", "addr", cfg.SSHAddr, "api", cfg.APIURL, "auth", cfg.SSHAuthMode)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			logger.Fatal("server error", "err", err)
		}
	}()

	<-done
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		logger.Fatal("shutdown error", "err", err)
	}
}

// ensureHostKey generates an ED25519 host key if it doesn't exist.
func ensureHostKey(logger *log.Logger, path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	logger.Info("generating ED25519 host key", "path", path)

	pubKey, privKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("generating key: %w", err)
	}

	// Convert to OpenSSH format
	sshPrivKey, err := gossh.MarshalPrivateKey(privKey, "")
	if err != nil {
		return fmt.Errorf("marshaling private key: %w", err)
	}
	if err := os.WriteFile(path, pem.EncodeToMemory(sshPrivKey), 0o600); err != nil {
		return fmt.Errorf("writing private key: %w", err)
	}

	sshPubKey, err := gossh.NewPublicKey(pubKey)
	if err != nil {
		return fmt.Errorf("creating public key: %w", err)
	}
	if err := os.WriteFile(path+".pub", gossh.MarshalAuthorizedKey(sshPubKey), 0o644); err != nil {
		return fmt.Errorf("writing public key: %w", err)
	}
	return nil
}
