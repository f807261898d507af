package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Register(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	ForgotPassword(ctx context.Context) error
	ResetPassword(ctx context.Context) error
	Verify(ctx context.Context) error
	ChangeNickname(ctx context.Context) error
	ChangeUsername(ctx context.Context) error
	ClearError(ctx context.Context) error
}

const (
	helpAnonymous     = "Доступные команды: login, register, forgot, reset, verify, exit"
	helpAuthenticated = "Доступные команды: whoami, nickname, username, verify, logout, clear, exit"
)

// runREPL starts a simple read-eval-print loop for the iskr CLI.
//
// It reads a line from reader, takes the first token as the command, and
// dispatches to methods on a. The loop exits on EOF, when ctx is done, or
// when the user types "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - login          : authenticate
//	  - register       : create an account
//	  - forgot         : request a password reset link
//	  - reset          : set a new password with the code from the link
//	  - verify         : confirm the email with the code from the link
//
//	Logged in:
//	  - whoami         : show the profile
//	  - nickname       : change the nickname
//	  - username       : change the username
//	  - logout         : log out
//
//	Always:
//	  - help           : show available commands
//	  - clear          : dismiss the current error
//	  - exit | quit    : leave the program
//
// Errors returned by command handlers are ignored here; handlers print
// their own messages.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for ctx.Err() == nil {
		printlnFn(fmt.Sprintf("iskr %s> ", statusFn()))
		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpAuthenticated)
			} else {
				printlnFn(helpAnonymous)
			}

		case "login":
			_ = a.Login(ctx)

		case "register":
			_ = a.Register(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "whoami":
			_ = a.WhoAmI(ctx)

		case "forgot":
			_ = a.ForgotPassword(ctx)

		case "reset":
			_ = a.ResetPassword(ctx)

		case "verify":
			_ = a.Verify(ctx)

		case "nickname":
			_ = a.ChangeNickname(ctx)

		case "username":
			_ = a.ChangeUsername(ctx)

		case "clear":
			_ = a.ClearError(ctx)

		case "exit", "quit":
			printlnFn("До встречи!")
			return

		default:
			printlnFn("Неизвестная команда:", cmd)
		}
	}
}
