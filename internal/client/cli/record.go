package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/gatelog/internal/client/client"
	"github.com/dmitrijs2005/gatelog/internal/client/models"
	"github.com/dmitrijs2005/gatelog/internal/client/upload"
	"github.com/dmitrijs2005/gatelog/internal/timex"
)

func (a *App) Show(ctx context.Context, args []string) error {
	id, err := a.recordID(args)
	if err != nil {
		return err
	}
	rec, err := a.records.Get(ctx, id)
	if err != nil {
		return err
	}
	a.printRecord(*rec)
	return nil
}

func (a *App) printRecord(r models.VehicleRecord) {
	rows := []struct{ name, value string }{
		{"ID", r.ID},
		{"Status", string(r.InOutStatus)},
		{"Date", timex.InstantToLocal(r.InOutDateTime, a.loc)},
		{"Reg No", r.RegNo},
		{"Vehicle", strings.TrimSpace(fmt.Sprintf("%s %s %s", r.Make, r.Model, r.Variant))},
		{"Year", string(r.Year)},
		{"Colour", r.Colour},
		{"Km", string(r.Kmp)},
		{"Price", string(r.Price)},
		{"Person", r.PersonName},
		{"Cell No", r.CellNo},
		{"Referral", r.ReferralID},
		{"Notes", r.Notes},
	}
	for _, row := range rows {
		if row.value != "" {
			a.printf("%-9s %s\n", row.name+":", row.value)
		}
	}
	for i, p := range r.Photos {
		a.printf("Photo %d:  %s\n", i+1, a.records.MediaURL(p))
	}
	if r.Video != "" {
		a.printf("Video:    %s\n", a.records.MediaURL(r.Video))
	}
}

// Add collects the record form and submits it with its attachments.
func (a *App) Add(ctx context.Context, _ []string) error {
	f := models.RecordFields{
		InOutStatus:   models.StatusIn,
		InOutDateTime: timex.InstantToLocal(a.now(), a.loc),
	}
	job, err := a.recordForm(f)
	if err != nil {
		return err
	}
	rec, err := a.submit(ctx, func(ctx context.Context, p upload.Progress) (*models.VehicleRecord, error) {
		return a.records.Create(ctx, job, p)
	})
	if err != nil {
		return err
	}
	a.printf("Saved record %s.\n", rec.ID)
	return nil
}

// Edit pre-fills the form from the stored record. Attachments picked here
// are sent with the update; none picked leaves the stored media alone.
func (a *App) Edit(ctx context.Context, args []string) error {
	id, err := a.recordID(args)
	if err != nil {
		return err
	}
	rec, err := a.records.Get(ctx, id)
	if err != nil {
		return err
	}
	job, err := a.recordForm(a.records.EditFields(*rec))
	if err != nil {
		return err
	}
	if _, err := a.submit(ctx, func(ctx context.Context, p upload.Progress) (*models.VehicleRecord, error) {
		return a.records.Update(ctx, id, job, p)
	}); err != nil {
		return err
	}
	a.printf("Updated record %s.\n", id)
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := a.recordID(args)
	if err != nil {
		return err
	}
	ok, err := a.confirm(fmt.Sprintf("Delete record %s?", id))
	if err != nil || !ok {
		return err
	}
	if err := a.records.Delete(ctx, id); err != nil {
		return err
	}
	a.println("Deleted.")
	return nil
}

// submit runs one submission with a progress line. On failure the same job
// can be retried without re-entering the form.
func (a *App) submit(ctx context.Context, run func(context.Context, upload.Progress) (*models.VehicleRecord, error)) (*models.VehicleRecord, error) {
	progress := func(f float64) {
		if upload.Visible(f) {
			a.printf("\ruploading %3.0f%%", f*100)
		}
	}
	for {
		rec, err := run(ctx, progress)
		a.printf("\r")
		if err == nil {
			return rec, nil
		}
		a.report(err)
		if !client.IsRetryable(err) {
			return nil, err
		}
		retry, cerr := a.confirm("Retry?")
		if cerr != nil || !retry {
			return nil, err
		}
	}
}

// recordForm prompts for every field, showing f's values as defaults, then
// for attachments.
func (a *App) recordForm(f models.RecordFields) (upload.Job, error) {
	status, err := a.askDefault("In or out (IN/OUT)", string(f.InOutStatus))
	if err != nil {
		return upload.Job{}, err
	}
	f.InOutStatus = models.InOutStatus(strings.ToUpper(status))

	for _, field := range []struct {
		prompt string
		dst    *string
	}{
		{"Date and time (YYYY-MM-DDTHH:MM)", &f.InOutDateTime},
		{"Reg No", &f.RegNo},
		{"Make", &f.Make},
		{"Model", &f.Model},
		{"Variant", &f.Variant},
		{"Year", &f.Year},
		{"Colour", &f.Colour},
		{"Km driven", &f.Kmp},
		{"Person name", &f.PersonName},
		{"Cell No", &f.CellNo},
		{"Price", &f.Price},
		{"Referral ID", &f.ReferralID},
	} {
		v, err := a.askDefault(field.prompt, *field.dst)
		if err != nil {
			return upload.Job{}, err
		}
		*field.dst = v
	}

	notes, err := GetMultiline(a.reader, "Notes (optional)", a.out)
	if err != nil {
		return upload.Job{}, err
	}
	if notes != "" {
		f.Notes = notes
	}
	if err := f.Validate(); err != nil {
		return upload.Job{}, err
	}

	var sel upload.Selection
	if err := a.pickAttachments(&sel); err != nil {
		return upload.Job{}, err
	}
	return upload.Job{Fields: f, Photos: sel.Photos(), Video: sel.Video()}, nil
}

// pickAttachments fills sel from paths typed by the user and lets them drop
// photos before submitting.
func (a *App) pickAttachments(sel *upload.Selection) error {
	line, err := a.ask("Photo paths (space separated, empty for none)")
	if err != nil {
		return err
	}
	if paths := strings.Fields(line); len(paths) > 0 {
		if _, err := sel.PickPhotos(paths...); err != nil {
			return err
		}
	}

	video, err := a.ask("Video path (empty for none)")
	if err != nil {
		return err
	}
	if video != "" {
		if _, err := sel.PickVideo(video); err != nil {
			return err
		}
	}

	for len(sel.Photos()) > 0 {
		for i, p := range sel.Photos() {
			a.printf("  photo %d: %s (%d bytes)\n", i+1, p.Name, p.Size)
		}
		answer, err := a.ask("Photo # to remove (empty to continue)")
		if err != nil {
			return err
		}
		if answer == "" {
			break
		}
		n, err := strconv.Atoi(answer)
		if err != nil {
			a.println("Enter a photo number.")
			continue
		}
		if err := sel.RemovePhoto(n - 1); err != nil {
			a.println(err)
		}
	}
	return nil
}

func (a *App) Dashboard(ctx context.Context, _ []string) error {
	st, err := a.records.Dashboard(ctx)
	if err != nil {
		return err
	}
	a.printf("Total: %d   Today: %d   This week: %d\n", st.Total, st.Today, st.ThisWeek)

	if len(st.TopReg) > 0 {
		a.println("Most frequent (\"goto <regNo>\" lists them):")
		for _, r := range st.TopReg {
			a.printf("  %-14s %d\n", r.RegNo, r.Count)
		}
	}
	for _, series := range []struct {
		name   string
		counts []models.DailyCount
	}{{"In", st.DailyCountsIn}, {"Out", st.DailyCountsOut}} {
		if len(series.counts) == 0 {
			continue
		}
		parts := make([]string, len(series.counts))
		for i, c := range series.counts {
			parts[i] = fmt.Sprintf("%s:%d", c.Date, c.Count)
		}
		a.printf("%-4s %s\n", series.name+":", strings.Join(parts, " "))
	}
	if len(st.Recent) > 0 {
		a.println("Recent:")
		for _, r := range st.Recent {
			a.printf("  %s  %-3s  %s  %s\n", timex.InstantToLocal(r.InOutDateTime, a.loc), r.InOutStatus, r.RegNo, r.PersonName)
		}
	}
	return nil
}

func (a *App) Export(ctx context.Context, _ []string) error {
	a.println("Exporting...")
	loc, err := a.records.Export(ctx, a.sink)
	if err != nil {
		return err
	}
	a.println("Saved to", loc)
	return nil
}
