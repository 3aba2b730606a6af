package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/protonpass/android-pass-sub021/domaincheck"
	"github.com/protonpass/android-pass-sub021/internal/config"
	"github.com/protonpass/android-pass-sub021/internal/db"
	"github.com/protonpass/android-pass-sub021/suffix"
	"github.com/protonpass/android-pass-sub021/suggestion"
)

// ErrNotFound is returned when a credential ID does not exist.
var ErrNotFound = errors.New("credential not found")

// Service exposes credential and autofill operations for the CLI and the native host.
type Service struct {
	db     *db.DB
	holder *suffix.Holder      // current public-suffix table
	engine *suggestion.Engine // reads holder per request
}

// New opens the vault database named by cfg and loads its public-suffix table.
func New(cfg *config.Config) (*Service, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	table, err := loadSuffixes(cfg.Suffix.ListPath, cfg.Suffix.IncludePrivate)
	if err != nil {
		return nil, err
	}

	dbPath := cfg.DatabasePath()
	database, err := db.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite (%s): %w", dbPath, err)
	}
	if err := db.Migrate(context.Background(), database); err != nil {
		db.Close(database)
		return nil, err
	}

	holder := suffix.NewHolder(table)
	return &Service{
		db:     database,
		holder: holder,
		engine: suggestion.NewEngine(holder),
	}, nil
}

// Close releases the database handle.
func (s *Service) Close() {
	if s.db != nil {
		_ = db.Close(s.db)
	}
}

// Add stores a credential. Websites that do not parse are kept as entered;
// they simply never match.
func (s *Service) Add(ctx context.Context, title, username string, websites, packages []string) (int64, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return 0, errors.New("username is required")
	}

	parser := s.engine.Parser()
	cleaned := make([]string, 0, len(websites))
	for _, w := range websites {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		if _, err := parser.Parse(w); err != nil {
			log.Warn("website will never match", "website", w, "err", err)
		}
		cleaned = append(cleaned, w)
	}
	pkgs := make([]string, 0, len(packages))
	for _, p := range packages {
		if p = strings.TrimSpace(p); p != "" {
			pkgs = append(pkgs, p)
		}
	}

	id, err := db.InsertCredential(ctx, s.db, db.CredentialRow{
		Title:        strings.TrimSpace(title),
		Username:     username,
		Websites:     cleaned,
		PackageNames: pkgs,
	})
	if err != nil {
		return 0, fmt.Errorf("add credential: %w", err)
	}
	log.Debug("added credential", "id", id, "websites", len(cleaned), "packages", len(pkgs))
	return id, nil
}

// List returns every stored credential in insertion order.
func (s *Service) List(ctx context.Context) ([]suggestion.Credential, error) {
	rows, err := db.ListCredentials(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	out := make([]suggestion.Credential, 0, len(rows))
	for _, r := range rows {
		out = append(out, toCredential(r))
	}
	return out, nil
}

// Get returns one credential by ID.
func (s *Service) Get(ctx context.Context, id int64) (suggestion.Credential, error) {
	row, err := db.GetCredential(ctx, s.db, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return suggestion.Credential{}, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return suggestion.Credential{}, fmt.Errorf("get credential: %w", err)
	}
	return toCredential(*row), nil
}

// Delete removes a credential by ID.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := db.DeleteCredential(ctx, s.db, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

// Suggest loads all credentials and returns those eligible for target, best first.
func (s *Service) Suggest(ctx context.Context, target suggestion.Target) ([]suggestion.Credential, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.engine.Suggest(all, target), nil
}

// Parse parses raw with the current public-suffix table.
func (s *Service) Parse(raw string) (domaincheck.HostInfo, error) {
	return s.engine.Parser().Parse(raw)
}

// ReloadSuffixes replaces the public-suffix table. In-flight requests keep
// the table they started with.
func (s *Service) ReloadSuffixes(path string, includePrivate bool) error {
	table, err := loadSuffixes(path, includePrivate)
	if err != nil {
		return err
	}
	s.holder.Store(table)
	log.Info("public suffix table reloaded", "path", path)
	return nil
}

func loadSuffixes(path string, includePrivate bool) (suffix.Lookup, error) {
	if path == "" {
		return suffix.Embedded{}, nil
	}
	trie, err := suffix.LoadFile(path, suffix.ListOptions{IncludePrivate: includePrivate})
	if err != nil {
		return nil, fmt.Errorf("load public suffix list: %w", err)
	}
	return trie, nil
}

func toCredential(r db.CredentialRow) suggestion.Credential {
	return suggestion.Credential{
		ID:           r.ID,
		Title:        r.Title,
		Username:     r.Username,
		PackageNames: r.PackageNames,
		Websites:     r.Websites,
	}
}
