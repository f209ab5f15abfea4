package cli

import (
	"context"

	"github.com/dmitrijs2005/gatelog/internal/client/services"
	"github.com/dmitrijs2005/gatelog/internal/common"
)

func (a *App) ask(prompt string) (string, error) {
	return GetSimpleText(a.reader, prompt, a.out)
}

func (a *App) askDefault(prompt, def string) (string, error) {
	return GetWithDefault(a.reader, prompt, def, a.out)
}

func (a *App) askPassword(prompt string) ([]byte, error) {
	return GetPassword(a.reader, prompt, a.out)
}

func (a *App) confirm(prompt string) (bool, error) {
	return Confirm(a.reader, prompt, a.out)
}

// Register collects the sign-up form and signs the new account in.
func (a *App) Register(ctx context.Context, _ []string) error {
	var in services.RegisterInput
	for _, f := range []struct {
		prompt string
		dst    *string
	}{
		{"First name", &in.FirstName},
		{"Last name", &in.LastName},
		{"Email", &in.Email},
		{"Phone", &in.Phone},
		{"Employee ID", &in.EmployeeID},
	} {
		v, err := a.ask(f.prompt)
		if err != nil {
			return err
		}
		*f.dst = v
	}

	pw, err := a.askPassword("Password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)
	confirm, err := a.askPassword("Confirm password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)
	in.Password, in.ConfirmPassword = pw, confirm

	sess, err := a.auth.Register(ctx, in)
	if err != nil {
		return err
	}
	a.printf("Welcome, %s!\n", sess.User.DisplayName())
	return nil
}

// Login signs in; "login admin" uses the administrator login type.
func (a *App) Login(ctx context.Context, args []string) error {
	loginType := services.LoginUser
	if len(args) > 0 {
		loginType = args[0]
	}

	email, err := a.ask("Email")
	if err != nil {
		return err
	}
	pw, err := a.askPassword("Password")
	if err != nil {
		return err
	}
	// Login wipes pw.
	sess, err := a.auth.Login(ctx, email, pw, loginType)
	if err != nil {
		return err
	}
	a.printf("Signed in as %s (%s).\n", sess.User.DisplayName(), sess.User.Role)
	return nil
}

func (a *App) Logout(ctx context.Context, _ []string) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	a.println("Signed out.")
	return nil
}

func (a *App) WhoAmI(_ context.Context, _ []string) error {
	sess, _ := a.sessions.Snapshot()
	if sess == nil {
		a.println("Not signed in.")
		return nil
	}
	u := sess.User
	a.printf("%s <%s>\n", u.DisplayName(), u.Email)
	a.printf("role: %s\n", u.Role)
	if u.EmployeeID != "" {
		a.printf("employee id: %s\n", u.EmployeeID)
	}
	if u.Phone != "" {
		a.printf("phone: %s\n", u.Phone)
	}
	return nil
}

func (a *App) Forgot(ctx context.Context, _ []string) error {
	email, err := a.ask("Email")
	if err != nil {
		return err
	}
	msg, err := a.auth.ForgotPassword(ctx, email)
	if err != nil {
		return err
	}
	a.println(msg)
	return nil
}

func (a *App) Reset(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	pw, err := a.askPassword("New password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)
	confirm, err := a.askPassword("Confirm password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	msg, err := a.auth.ResetPassword(ctx, args[0], pw, confirm)
	if err != nil {
		return err
	}
	a.println(msg)
	return nil
}

// Status prints the session state and the listing location.
func (a *App) Status(_ context.Context, _ []string) error {
	sess, gen := a.sessions.Snapshot()
	a.printf("session: %s (generation %d)\n", a.sessions.State(), gen)
	if sess != nil {
		a.printf("user: %s\n", sess.User.Email)
	}
	v := a.ctrl.View()
	a.println("listing:", v.Location)
	if v.Loaded {
		a.printf("page %d of %d, %d records\n", v.Params.Page, v.LastPage, v.Result.Total)
	}
	return nil
}
