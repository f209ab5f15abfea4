package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/gatelog/internal/client/query"
	"github.com/dmitrijs2005/gatelog/internal/timex"
)

// listed runs a controller call and prints the resulting page. A response
// superseded by a newer query is not an error for the user.
func (a *App) listed(err error) error {
	if errors.Is(err, query.ErrStale) {
		return nil
	}
	if err != nil {
		return err
	}
	a.printPage()
	return nil
}

func (a *App) List(ctx context.Context, _ []string) error {
	return a.listed(a.ctrl.Refresh(ctx))
}

func (a *App) Search(ctx context.Context, args []string) error {
	a.ctrl.StageSearch(strings.Join(args, " "))
	return a.listed(a.ctrl.SubmitSearch(ctx))
}

func (a *App) Filter(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	s, ok := query.ParseStatus(args[0])
	if !ok {
		return errUsage
	}
	return a.listed(a.ctrl.SetStatus(ctx, s))
}

func (a *App) Sort(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	f, ok := query.ParseSortField(args[0])
	if !ok {
		return errUsage
	}
	return a.listed(a.ctrl.SetSort(ctx, f))
}

func (a *App) Direction(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	d, ok := query.ParseDirection(args[0])
	if !ok {
		return errUsage
	}
	return a.listed(a.ctrl.SetDirection(ctx, d))
}

func (a *App) Limit(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return errUsage
	}
	return a.listed(a.ctrl.SetPageSize(ctx, n))
}

func (a *App) Page(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return errUsage
	}
	return a.listed(a.ctrl.SetPage(ctx, n))
}

func (a *App) Next(ctx context.Context, _ []string) error {
	return a.listed(a.ctrl.NextPage(ctx))
}

func (a *App) Prev(ctx context.Context, _ []string) error {
	return a.listed(a.ctrl.PrevPage(ctx))
}

// Link prints the location of the current listing; "open" restores it.
func (a *App) Link(_ context.Context, _ []string) error {
	a.println(a.ctrl.Location())
	return nil
}

func (a *App) Open(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	return a.listed(a.ctrl.Open(ctx, args[0]))
}

// Goto opens a fresh listing searched for one registration number, as the
// dashboard's most-frequent list does.
func (a *App) Goto(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	p := query.Default()
	p.Search = args[0]
	return a.listed(a.ctrl.Navigate(ctx, p))
}

func (a *App) printPage() {
	v := a.ctrl.View()
	p := v.Params

	var filters []string
	if p.Search != "" {
		filters = append(filters, fmt.Sprintf("search %q", p.Search))
	}
	if p.Status != query.StatusAny {
		filters = append(filters, "status "+p.Status.String())
	}
	filters = append(filters, fmt.Sprintf("sorted by %s %s", p.Sort, p.Dir))
	a.println(strings.Join(filters, ", "))

	if len(v.Result.Items) == 0 {
		a.println("No records.")
		return
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tIN/OUT\tDATE\tREG NO\tVEHICLE\tPERSON")
	for i, r := range v.Result.Items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			i+1, r.ID, r.InOutStatus,
			timex.InstantToLocal(r.InOutDateTime, a.loc),
			r.RegNo, strings.TrimSpace(r.Make+" "+r.Model), r.PersonName)
	}
	tw.Flush()
	a.printf("page %d of %d, %d records\n", p.Page, v.LastPage, v.Result.Total)
}

// recordID resolves "#n" to the n-th record of the displayed page; any
// other argument is taken as a record id.
func (a *App) recordID(args []string) (string, error) {
	if len(args) != 1 {
		return "", errUsage
	}
	ref := args[0]
	if !strings.HasPrefix(ref, "#") {
		return ref, nil
	}
	n, err := strconv.Atoi(ref[1:])
	items := a.ctrl.View().Result.Items
	if err != nil || n < 1 || n > len(items) {
		return "", fmt.Errorf("no record %s on this page", ref)
	}
	return items[n-1].ID, nil
}
