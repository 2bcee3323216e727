// tutorchat - terminal client for the Lumen tutoring service.
//
// Copyright (c) 2025-2026 Lumen Learning Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/lumenedu/tutorchat/internal/auth"
	"github.com/lumenedu/tutorchat/internal/config"
	"github.com/lumenedu/tutorchat/internal/pagectx"
	"github.com/lumenedu/tutorchat/internal/ratelimit"
	"github.com/lumenedu/tutorchat/internal/telemetry"
	"github.com/lumenedu/tutorchat/internal/thread"
	"github.com/lumenedu/tutorchat/internal/tutor"
	"github.com/lumenedu/tutorchat/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.3.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	var (
		pageURL      = flag.String("page-url", "", "URL of the study material")
		pageTitle    = flag.String("page-title", "", "title of the study material")
		pageHeadings = flag.String("page-headings", "", "comma-separated section headings")
		showVersion  = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("tutorchat %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "tutorchat requires an interactive terminal")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// CLI flags override config for the material description.
	if *pageURL != "" {
		cfg.Page.URL = *pageURL
	}
	if *pageTitle != "" {
		cfg.Page.Title = *pageTitle
	}
	if *pageHeadings != "" {
		cfg.Page.Headings = splitHeadings(*pageHeadings)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Auth: a fixed session token from env/config stands in for the
	// platform's session module.
	tokens := auth.NewTokenProvider(&auth.StaticProvider{Token: cfg.Auth.SessionToken})
	tokens.StartPolling(ctx, time.Duration(cfg.Auth.PollIntervalSecs)*time.Second)

	client := tutor.NewClient(tokens).WithBaseURL(cfg.API.BaseURL)
	store := thread.NewStore()
	limits := ratelimit.NewTracker()
	gate := ratelimit.NewRefreshGate(cfg.Limits.UsageRefreshPerMinute)
	material := pagectx.NewMaterial(cfg.Page.URL, cfg.Page.Title, cfg.Page.Headings)

	// Exchange journal is optional; the client runs fine without it.
	var journal telemetry.Recorder
	if cfg.Telemetry.Enabled {
		j, err := telemetry.Open(cfg.Telemetry.DBPath)
		if err != nil {
			log.Printf("telemetry: journal unavailable: %v", err)
		} else {
			journal = j
			defer j.Close()
		}
	}

	m := chat.New(chat.Deps{
		Config:   cfg,
		Client:   client,
		Store:    store,
		Limits:   limits,
		Gate:     gate,
		Tokens:   tokens,
		Material: material,
		Journal:  journal,
	})

	lipglossOutput := termenv.NewOutput(os.Stdout)
	_ = lipglossOutput.ColorProfile() // force profile detection before altscreen

	p := tea.NewProgram(m, tea.WithAltScreen())
	m.SetPump(func(msg tea.Msg) { p.Send(msg) })

	// Sign-in transitions and config reloads reach the UI through the
	// same pump as streaming notes.
	go func() {
		states := tokens.Subscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case s := <-states:
				p.Send(chat.AuthStateMsg{State: s})
			}
		}
	}()

	if dir, err := config.Dir(); err == nil {
		if err := config.Watch(ctx, dir, func(next *config.Config) {
			p.Send(chat.ConfigReloadedMsg{Config: next})
		}); err != nil {
			log.Printf("config: live reload unavailable: %v", err)
		}
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running tutorchat: %v\n", err)
		os.Exit(1)
	}
}

// splitHeadings parses the comma-separated headings flag.
func splitHeadings(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
