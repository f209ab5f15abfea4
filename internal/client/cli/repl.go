package cli

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"

	"github.com/dmitrijs2005/gatelog/internal/client/access"
	"github.com/dmitrijs2005/gatelog/internal/client/models"
	"github.com/dmitrijs2005/gatelog/internal/client/session"
)

// command is one REPL verb. Public commands run in any session state;
// gated ones need a verified session satisfying role.
type command struct {
	usage  string
	help   string
	public bool
	role   models.Role
	run    func(a *App, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"register": {usage: "register", help: "create an account", public: true, run: (*App).Register},
	"login":    {usage: "login [admin]", help: "sign in", public: true, run: (*App).Login},
	"forgot":   {usage: "forgot", help: "request a password reset link", public: true, run: (*App).Forgot},
	"reset":    {usage: "reset <token>", help: "set a new password with a reset token", public: true, run: (*App).Reset},
	"status":   {usage: "status", help: "show session and listing state", public: true, run: (*App).Status},

	"logout": {usage: "logout", help: "sign out", run: (*App).Logout},
	"whoami": {usage: "whoami", help: "show the signed-in profile", run: (*App).WhoAmI},

	"list":   {usage: "list", help: "show the current page of records", run: (*App).List},
	"search": {usage: "search [text]", help: "search by registration or name; empty clears", run: (*App).Search},
	"filter": {usage: "filter <in|out|all>", help: "filter by gate direction", run: (*App).Filter},
	"sort":   {usage: "sort <date|regNo|person>", help: "choose the sort column", run: (*App).Sort},
	"dir":    {usage: "dir <asc|desc>", help: "choose the sort direction", run: (*App).Direction},
	"limit":  {usage: "limit <10|25|50>", help: "choose the page size", run: (*App).Limit},
	"page":   {usage: "page <n>", help: "go to page n", run: (*App).Page},
	"next":   {usage: "next", help: "next page", run: (*App).Next},
	"prev":   {usage: "prev", help: "previous page", run: (*App).Prev},
	"link":   {usage: "link", help: "print a shareable link to this listing", run: (*App).Link},
	"open":   {usage: "open <link>", help: "restore a listing from a link", run: (*App).Open},
	"goto":   {usage: "goto <regNo>", help: "list the records of one registration number", run: (*App).Goto},

	"show":      {usage: "show <id|#n>", help: "show a record", run: (*App).Show},
	"add":       {usage: "add", help: "log a vehicle entry", run: (*App).Add},
	"dashboard": {usage: "dashboard", help: "today's and this week's summary", run: (*App).Dashboard},

	"edit":   {usage: "edit <id|#n>", help: "edit a record", role: models.RoleAdmin, run: (*App).Edit},
	"delete": {usage: "delete <id|#n>", help: "delete a record", role: models.RoleAdmin, run: (*App).Delete},
	"export": {usage: "export", help: "download all records as a spreadsheet", role: models.RoleAdmin, run: (*App).Export},

	"users":    {usage: "users", help: "list accounts", role: models.RoleAdmin, run: (*App).Users},
	"user":     {usage: "user <id>", help: "show an account", role: models.RoleAdmin, run: (*App).User},
	"edituser": {usage: "edituser <id>", help: "edit an account", role: models.RoleAdmin, run: (*App).EditUser},
	"deluser":  {usage: "deluser <id>", help: "delete an account", role: models.RoleAdmin, run: (*App).DeleteUser},
}

var aliases = map[string]string{
	"l":  "list",
	"ls": "list",
	"n":  "next",
	"p":  "prev",
	"rm": "delete",
}

var errUsage = errors.New("usage")

// runREPL reads commands from a.reader until EOF, "exit"/"quit" or ctx ends.
// Handler errors are reported and never end the loop.
func runREPL(ctx context.Context, a *App) {
	for ctx.Err() == nil {
		a.printf("gatelog %s> ", a.prompt())
		line, err := a.reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			a.println()
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		name, args := parts[0], parts[1:]
		switch name {
		case "exit", "quit":
			a.println("Bye!")
			return
		case "help":
			a.help()
			continue
		}
		a.dispatch(ctx, name, args)
	}
}

func (a *App) dispatch(ctx context.Context, name string, args []string) {
	if full, ok := aliases[name]; ok {
		name = full
	}
	cmd, ok := commands[name]
	if !ok {
		a.println("Unknown command:", name)
		return
	}

	if !cmd.public {
		if a.sessions.State() == session.StateLoading {
			a.println("Restoring your session, try again in a moment.")
			return
		}
		sess, _ := a.sessions.Snapshot()
		if sess == nil {
			a.println("Please log in first.")
			return
		}
		if err := access.Gate(sess, cmd.role); err != nil {
			a.report(err)
			return
		}
	}

	err := cmd.run(a, ctx, args)
	switch {
	case errors.Is(err, errUsage):
		a.println("Usage:", cmd.usage)
	case err != nil:
		a.logger.Debug(ctx, "command failed", "command", name, "error", err)
		a.report(err)
	}
}

// prompt shows who is signed in, or the session state otherwise.
func (a *App) prompt() string {
	switch a.sessions.State() {
	case session.StateLoading:
		return "(restoring)"
	case session.StateAuthenticated:
		if sess, _ := a.sessions.Snapshot(); sess != nil {
			if sess.IsAdmin() {
				return "(" + sess.User.Email + " admin)"
			}
			return "(" + sess.User.Email + ")"
		}
	}
	return "(signed out)"
}

// help lists the commands the current session can use.
func (a *App) help() {
	sess, _ := a.sessions.Snapshot()
	names := make([]string, 0, len(commands))
	for name, cmd := range commands {
		if cmd.public || access.CanAccess(sess, cmd.role) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		cmd := commands[name]
		a.printf("  %-26s %s\n", cmd.usage, cmd.help)
	}
	a.printf("  %-26s %s\n", "exit", "leave the program")
}
