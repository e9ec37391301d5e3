// Copyright 2025 Tramovia
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bufio"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/tramovia/rutabot"
	"github.com/tramovia/rutabot/config"
	"github.com/tramovia/rutabot/core"
	"github.com/urfave/cli/v2"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "rutabot",
		Usage: "Conversational assistant over institutional transport data",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "chat",
				Usage:  "Start an interactive chat session",
				Action: chatCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "institution",
						Aliases: []string{"i"},
						Usage:   "Scope the knowledge corpus to one institution id",
					},
					&cli.StringFlag{
						Name:  "transcripts",
						Usage: "Path to a BadgerDB directory for transcript persistence",
					},
					&cli.StringFlag{
						Name:  "session",
						Usage: "Session id for transcript persistence",
					},
				},
			},
			{
				Name:   "build",
				Usage:  "Build the knowledge corpus once and report its stats",
				Action: buildCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "institution",
						Aliases: []string{"i"},
						Usage:   "Scope the knowledge corpus to one institution id",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(c *cli.Context) (*config.AppConfig, error) {
	if path := c.String("config"); path != "" {
		return config.Load(path)
	}
	cfg, _, err := config.LoadDefault()
	return cfg, err
}

func newAssistant(c *cli.Context, extra ...rutabot.AssistantOption) (*rutabot.Assistant, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	if inst := c.String("institution"); inst != "" {
		cfg.Session.InstitutionID = inst
	}
	if path := c.String("transcripts"); path != "" {
		cfg.Session.TranscriptPath = path
	}
	if id := c.String("session"); id != "" {
		cfg.Session.SessionID = id
	}

	return rutabot.NewAssistantFromConfig(c.Context, cfg, extra...)
}

func chatCommand(c *cli.Context) error {
	assistant, err := newAssistant(c)
	if err != nil {
		return err
	}
	defer assistant.Close()

	sess := assistant.Session()

	fmt.Println("Construyendo la base de conocimiento...")
	if err := sess.Initialize(c.Context); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	for _, msg := range sess.Messages() {
		printMessage(msg)
	}

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println(`Escribe tu pregunta ("salir" para terminar, "limpiar" para reiniciar el chat).`)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		switch strings.ToLower(text) {
		case "salir":
			return scanner.Err()
		case "limpiar":
			sess.ClearChat(c.Context)
			for _, msg := range sess.Messages() {
				printMessage(msg)
			}
			continue
		}

		if err := sess.SendMessage(c.Context, text); err != nil {
			fmt.Println(sess.Err())
			continue
		}

		messages := sess.Messages()
		printMessage(messages[len(messages)-1])
	}

	return scanner.Err()
}

func buildCommand(c *cli.Context) error {
	assistant, err := newAssistant(c)
	if err != nil {
		return err
	}
	defer assistant.Close()

	sess := assistant.Session()
	if err := sess.Initialize(c.Context); err != nil {
		return fmt.Errorf("corpus build failed: %w", err)
	}

	stats := sess.Stats()
	fmt.Printf("Corpus: %d entradas (%d sin embedding)\n", stats.Total, stats.Unembedded)
	for _, family := range []core.EntryType{core.EntryTypeRoute, core.EntryTypeInstitution, core.EntryTypeVehicle, core.EntryTypeTrip} {
		fmt.Printf("  %-12s %d\n", family, stats.ByType[family])
	}
	fmt.Printf("Fingerprint: %016x\n", stats.Fingerprint)

	return nil
}

func printMessage(msg core.ChatMessage) {
	label := "Usuario"
	if msg.Role == core.RoleAssistant {
		label = "Asistente"
	}
	fmt.Printf("%s: %s\n", label, msg.Content)
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
