package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/gatelog/internal/client/models"
)

func (a *App) Users(ctx context.Context, _ []string) error {
	users, err := a.users.List(ctx)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		a.println("No users.")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE\tEMPLOYEE ID")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.DisplayName(), u.Email, u.Role, u.EmployeeID)
	}
	return tw.Flush()
}

func (a *App) User(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	u, err := a.users.Get(ctx, args[0])
	if err != nil {
		return err
	}
	a.printUser(*u)
	return nil
}

func (a *App) printUser(u models.User) {
	a.printf("%s <%s>\n", u.DisplayName(), u.Email)
	a.printf("id: %s\nrole: %s\n", u.ID, u.Role)
	if u.Phone != "" {
		a.printf("phone: %s\n", u.Phone)
	}
	if u.EmployeeID != "" {
		a.printf("employee id: %s\n", u.EmployeeID)
	}
	if !u.CreatedAt.IsZero() {
		a.printf("created: %s\n", u.CreatedAt.In(a.loc).Format("2006-01-02 15:04"))
	}
}

func (a *App) EditUser(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	u, err := a.users.Get(ctx, args[0])
	if err != nil {
		return err
	}

	upd := models.UserUpdate{
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Email:      u.Email,
		Phone:      u.Phone,
		EmployeeID: u.EmployeeID,
	}
	for _, f := range []struct {
		prompt string
		dst    *string
	}{
		{"First name", &upd.FirstName},
		{"Last name", &upd.LastName},
		{"Email", &upd.Email},
		{"Phone", &upd.Phone},
		{"Employee ID", &upd.EmployeeID},
	} {
		v, err := a.askDefault(f.prompt, *f.dst)
		if err != nil {
			return err
		}
		*f.dst = v
	}

	updated, err := a.users.Update(ctx, u.ID, upd)
	if err != nil {
		return err
	}
	a.printUser(*updated)
	return nil
}

func (a *App) DeleteUser(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	ok, err := a.confirm(fmt.Sprintf("Delete user %s?", args[0]))
	if err != nil || !ok {
		return err
	}
	if err := a.users.Delete(ctx, args[0]); err != nil {
		return err
	}
	a.println("Deleted.")
	return nil
}
