package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/benjamonnguyen/daybook"
	"github.com/benjamonnguyen/daybook/charmlog"
	"github.com/benjamonnguyen/daybook/client"
)

func main() {
	// conf
	conf, err := daybook.LoadConfig(daybook.DefaultConfigPath)
	if err != nil {
		fmt.Println(colorize(colorRed, err.Error()))
		os.Exit(1)
	}

	logPath := conf.LogPath
	if logPath == "" {
		logPath = filepath.Join(filepath.Dir(daybook.DefaultLogPath), "daybook-cli.log")
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		panic(err)
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o666)
	if err != nil {
		panic(err)
	}
	defer f.Close() //nolint:errcheck
	logger := configLogger(conf.LogLevel, f)
	logger.Info("loaded config", "server", conf.ServerURL, "user", conf.User)

	c, err := client.New(conf.ServerURL, conf.User, logger)
	if err != nil {
		fmt.Println(colorize(colorRed, err.Error()))
		os.Exit(1)
	}

	// handle initial args
	if len(os.Args) > 1 {
		os.Exit(runOnce(c, os.Args[1:], os.Stdout))
	}

	// start program
	fmt.Println(colorize(colorYellow, logo))
	fmt.Printf("\nHi %s! Enter \"/h\" for help\n\n", conf.User)

	p := tea.NewProgram(newModel(c, logger))
	if _, err := p.Run(); err != nil {
		logger.Error(err.Error())
	}
}

func configLogger(level string, w io.Writer) daybook.Logger {
	return charmlog.NewLogger(charmlog.Options{
		Writer: w,
		Level:  level,
		Prefix: "daybook",
	})
}

// runOnce sends args as a single chat message and prints the reply.
func runOnce(c Client, args []string, w io.Writer) int {
	msg := strings.TrimSpace(strings.Join(args, " "))
	if msg == "" || msg == "/h" || msg == "-h" || msg == "--help" {
		fmt.Fprintln(w, colorize(colorYellow, programUsage))
		return 0
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	reply, err := c.Chat(ctx, msg)
	if err != nil {
		fmt.Fprintln(w, colorize(colorRed, err.Error()))
		return 1
	}
	fmt.Fprintln(w, renderReply(reply))
	return 0
}
