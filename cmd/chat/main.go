package main

import (
	"bufio"
	"chat-relay/client"
	"chat-relay/domain"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

type Config struct {
	ServerAddress string `env:"CHAT_SERVER_ADDR,default=localhost:10000"`
	Name          string `env:"CHAT_NAME,required=true"`
	LogLevel      string `env:"LOG_LEVEL,default=INFO"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run connects, registers and then relays stdin lines of the form
// "@recipient text" until "/quit", EOF or Ctrl+C.
func run() (int, error) {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := client.Dial(ctx, config.ServerAddress)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to relay at %s: %w", config.ServerAddress, err)
	}
	defer func() {
		log.Debug("Closing connection...")
		_ = c.Close()
	}()
	context.AfterFunc(ctx, func() { _ = c.Close() })

	if err = c.Register(domain.Identity(config.Name)); err != nil {
		return exitRuntime, err
	}

	received := make(chan error, 1)
	go func() { received <- receive(log, c, domain.Identity(config.Name)) }()
	go prompt(log, c)

	select {
	case <-ctx.Done():
		_ = c.Leave()
		return exitOK, nil
	case err = <-received:
		if err == nil || errors.Is(err, io.EOF) || ctx.Err() != nil {
			return exitOK, nil
		}
		return exitRuntime, err
	}
}

func prompt(log *slog.Logger, c *client.Client) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
		case line == "/quit":
			_ = c.Leave()
			return
		case strings.HasPrefix(line, "@"):
			recipient, text, _ := strings.Cut(line[1:], " ")
			if err := c.Send(domain.Identity(recipient), text); err != nil {
				log.Error("Send failed", "error", err)
				return
			}
		default:
			fmt.Println("usage: @recipient text | /quit")
		}
	}
	_ = c.Leave()
}

// receive prints relay frames. A checked copy that doesn't match the
// delivered text is reported back to its sender once.
func receive(log *slog.Logger, c *client.Client, self domain.Identity) error {
	tracker := client.NewTracker(self)
	for {
		frame, err := c.Receive()
		if err != nil {
			return err
		}
		switch f := frame.(type) {
		case domain.RosterSnapshot:
			fmt.Println(color.FgCyan.Render(fmt.Sprintf("online: %v", f.Identities)))
		case domain.Joined:
			fmt.Println(color.FgGreen.Render(fmt.Sprintf("+ %s", f.Identity)))
		case domain.Departed:
			fmt.Println(color.FgYellow.Render(fmt.Sprintf("- %s", f.Identity)))
		case domain.Delivered:
			tracker.Delivered(f)
			fmt.Printf("%s: %s\n", color.Bold.Render(string(f.Sender)), f.Text)
		case domain.DeliveredChecked:
			if corrupted, ok := tracker.Checked(f); ok {
				log.Warn("Message corrupted in transit", "sender", corrupted.Sender)
				if err = c.Resend(corrupted.Sender, f.Text); err != nil {
					return err
				}
			}
		case domain.Error:
			fmt.Println(color.FgRed.Render("error: " + f.Reason))
		}
	}
}
