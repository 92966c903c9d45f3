package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. The real App
// satisfies it; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context, args []string) error
	Login(ctx context.Context, args []string) error
	Logout(ctx context.Context, args []string) error
	WhoAmI(ctx context.Context, args []string) error
	List(ctx context.Context, args []string) error
	Add(ctx context.Context, args []string) error
	Update(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Settings(ctx context.Context, args []string) error
	Set(ctx context.Context, args []string) error
	Clear(ctx context.Context, args []string) error
	Backup(ctx context.Context, args []string) error
	Restore(ctx context.Context, args []string) error
	History(ctx context.Context, args []string) error
	Stats(ctx context.Context, args []string) error
}

// errUsage is returned by handlers called with the wrong arguments; the
// REPL prints the usage line attached to it.
var errUsage = errors.New("usage")

func usage(format string) error {
	return fmt.Errorf("%w: %s", errUsage, format)
}

const (
	helpCommon = "Available commands: list <collection>, add <collection>, update <collection> <id>, delete <collection> <id>, settings, set <key> <value>, clear, stats, whoami, exit"
	helpAnon   = "Cloud backup: register, login"
	helpAuth   = "Cloud backup: backup, restore [id], history [n], logout"
)

// runREPL reads one command per line and dispatches it to a. The loop
// exits on EOF or when the user types "exit" or "quit". Handler errors are
// printed and do not stop the loop.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	handlers := map[string]func(context.Context, []string) error{
		"register": a.Register,
		"login":    a.Login,
		"logout":   a.Logout,
		"whoami":   a.WhoAmI,
		"l":        a.List,
		"list":     a.List,
		"add":      a.Add,
		"update":   a.Update,
		"delete":   a.Delete,
		"settings": a.Settings,
		"set":      a.Set,
		"clear":    a.Clear,
		"backup":   a.Backup,
		"restore":  a.Restore,
		"history":  a.History,
		"stats":    a.Stats,
	}

	for {
		printlnFn(fmt.Sprintf("hk %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			printlnFn(helpCommon)
			if a.isLoggedIn() {
				printlnFn(helpAuth)
			} else {
				printlnFn(helpAnon)
			}
			continue
		case "exit", "quit":
			printlnFn("Bye!")
			return
		}

		h, ok := handlers[cmd]
		if !ok {
			printlnFn("Unknown command:", cmd)
			continue
		}
		if err := h(ctx, args); err != nil {
			if errors.Is(err, errUsage) {
				printlnFn(strings.Replace(err.Error(), "usage: ", "Usage: ", 1))
			} else {
				printlnFn("Error:", err.Error())
			}
		}
	}
}
