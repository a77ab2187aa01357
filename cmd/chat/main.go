package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sbordet/oort-chat-demo/internal/app"
	"github.com/sbordet/oort-chat-demo/internal/chat"
	"github.com/sbordet/oort-chat-demo/internal/config"
	"github.com/sbordet/oort-chat-demo/internal/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		url        string
		user       string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:           "chat",
		Short:         "Interactive multi-room chat client",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides := config.Config{ServerURL: url, User: user, LogLevel: logLevel}
			return run(configPath, overrides)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to config file")
	cmd.Flags().StringVar(&url, "url", "", "server websocket URL")
	cmd.Flags().StringVar(&user, "user", "", "user name to log in with")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	return cmd
}

func run(configPath string, overrides config.Config) error {
	logger := log.New(overrides.LogLevel)

	cfg, _, err := config.Load(logger, configPath)
	if err != nil {
		return err
	}
	cfg.UpdateFrom(overrides)
	logger = log.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application := app.New(cfg, logger)
	if err := application.Run(ctx); err != nil {
		return err
	}
	// Always log out on teardown, whatever state the session is in.
	defer application.Close()

	sess := application.Session
	go printEvents(ctx, sess)

	if cfg.User == "" {
		fmt.Println("Not logged in. Use /login <user> to start.")
	}

	repl(ctx, sess)
	return nil
}

func printEvents(ctx context.Context, sess *chat.Session) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-sess.Events():
			printEvent(ev)
		}
	}
}

func printEvent(ev *chat.Event) {
	switch ev.Kind {
	case chat.EventSessionState:
		if ev.User != "" {
			fmt.Printf("* session %s as %s\n", ev.State, ev.User)
		} else {
			fmt.Printf("* session %s\n", ev.State)
		}
	case chat.EventLoginFailed:
		fmt.Println("* login failed")
	case chat.EventRooms:
		names := make([]string, len(ev.Rooms))
		for i, r := range ev.Rooms {
			names[i] = r.Name
		}
		fmt.Printf("* rooms: %s\n", strings.Join(names, ", "))
	case chat.EventRoomJoined:
		fmt.Printf("* joined room %q\n", ev.Room.Name)
	case chat.EventRoomLeft:
		fmt.Printf("* left room %q\n", ev.Room.Name)
	case chat.EventRoomEdited:
		fmt.Printf("* room renamed to %q\n", ev.Room.Name)
	case chat.EventRoomCreated:
		fmt.Printf("* room %q created\n", ev.Room.Name)
	case chat.EventRoster:
		fmt.Printf("* members: %s\n", strings.Join(ev.Members, ", "))
	case chat.EventChatMessage:
		fmt.Printf("%s: %s\n", ev.Message.Author, ev.Message.Text)
	case chat.EventChatHistory:
		for _, m := range ev.History {
			fmt.Printf("%s: %s\n", m.Author, m.Text)
		}
	case chat.EventUserCount:
		fmt.Printf("* total users: %d\n", ev.Count)
	case chat.EventStatus:
		fmt.Printf("* %s\n", ev.Status)
	}
}

func repl(ctx context.Context, sess *chat.Session) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if quit := handleLine(sess, line); quit {
				return
			}
		}
	}
}

func handleLine(sess *chat.Session, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if !strings.HasPrefix(line, "/") {
		sess.SendText(line)
		return false
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/login":
		if err := sess.Login(arg); err != nil {
			fmt.Printf("! %v\n", err)
		}
	case "/logout":
		sess.Logout()
	case "/rooms":
		for _, r := range sess.Rooms() {
			marker := " "
			if current, ok := sess.CurrentRoom(); ok && current.ID == r.ID {
				marker = "*"
			}
			fmt.Printf("%s %s\n", marker, r.Name)
		}
	case "/join":
		room, ok := findRoom(sess, arg)
		if !ok {
			fmt.Printf("! unknown room %q\n", arg)
			return false
		}
		if err := sess.JoinRoom(room); err != nil {
			fmt.Printf("! %v\n", err)
		}
	case "/leave":
		sess.LeaveRoom()
	case "/create":
		if err := sess.CreateRoom(arg); err != nil {
			fmt.Printf("! %v\n", err)
		}
	case "/rename":
		current, ok := sess.CurrentRoom()
		if !ok {
			fmt.Println("! no room joined")
			return false
		}
		if err := sess.EditRoom(current.ID, arg); err != nil {
			fmt.Printf("! %v\n", err)
		}
	case "/members":
		fmt.Println(strings.Join(sess.Roster(), ", "))
	case "/quit":
		return true
	default:
		fmt.Printf("! unknown command %s\n", cmd)
	}
	return false
}

func findRoom(sess *chat.Session, nameOrID string) (chat.Room, bool) {
	for _, r := range sess.Rooms() {
		if r.Name == nameOrID || r.ID == nameOrID {
			return r, true
		}
	}
	return chat.Room{}, false
}
