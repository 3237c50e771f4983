package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/filex"
	"github.com/fatih/color"
)

// getPassword is an indirection used to facilitate testing.
var getPassword = GetPassword

var errAlreadyUnlocked = errors.New("vault is already unlocked")

func (a *App) Status(ctx context.Context) error {
	st, err := a.auth.Status(ctx)
	if err != nil {
		return err
	}
	recs, err := a.records.List(ctx)
	if err != nil {
		return err
	}

	passphrase := "configured"
	if !st.Configured {
		passphrase = "not set, run unlock"
	}

	fmt.Fprintf(a.out, "profile:     %s (%s)\n", a.config.User, a.storeName())
	fmt.Fprintf(a.out, "state:       %s\n", st.Phase)
	fmt.Fprintf(a.out, "passphrase:  %s\n", passphrase)
	fmt.Fprintf(a.out, "records:     %d\n", len(recs))
	fmt.Fprintf(a.out, "auto-lock:   after %s idle\n", a.monitor.Timeout())
	if !st.LastActivity.IsZero() {
		fmt.Fprintf(a.out, "last active: %s\n", st.LastActivity.Format(time.TimeOnly))
	}
	return nil
}

// Unlock asks for the passphrase. Without a configured passphrase it runs
// first-time setup instead, asking twice.
func (a *App) Unlock(ctx context.Context) error {
	if a.session.IsUnlocked() {
		return errAlreadyUnlocked
	}

	st, err := a.auth.Status(ctx)
	if err != nil {
		return err
	}

	if !st.Configured {
		return a.setup(ctx)
	}

	pass, err := getPassword(a.out, "Passphrase: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pass)

	if err := a.auth.Unlock(ctx, string(pass)); err != nil {
		return err
	}
	fmt.Fprintln(a.out, color.GreenString("vault unlocked"))
	return nil
}

func (a *App) setup(ctx context.Context) error {
	fmt.Fprintln(a.out, "No passphrase is set for this profile. Choose one; it cannot be recovered.")

	pass, err := getPassword(a.out, "New passphrase: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pass)

	again, err := getPassword(a.out, "Repeat passphrase: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(again)

	if err := a.auth.Setup(ctx, string(pass), string(again)); err != nil {
		return err
	}
	fmt.Fprintln(a.out, color.GreenString("passphrase set, vault unlocked"))
	return nil
}

func (a *App) Lock(_ context.Context) error {
	a.auth.Lock()
	return nil
}

func (a *App) Set(ctx context.Context, name string) error {
	if !a.session.IsUnlocked() {
		return common.ErrSessionLocked
	}

	value, err := getPassword(a.out, fmt.Sprintf("Value for %s: ", name))
	if err != nil {
		return err
	}
	defer common.WipeByteArray(value)

	if err := a.records.Put(ctx, name, string(value)); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "stored %s\n", name)
	return nil
}

func (a *App) Get(ctx context.Context, name string) error {
	value, err := a.records.Get(ctx, name)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, value)
	return nil
}

func (a *App) List(ctx context.Context) error {
	recs, err := a.records.List(ctx)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintln(a.out, "no records")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tUPDATED")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\n", r.Name, r.UpdatedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

func (a *App) Delete(ctx context.Context, name string) error {
	ok, err := confirm(a.reader, fmt.Sprintf("Delete %s?", name), a.out)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.out, "cancelled")
		return nil
	}

	if err := a.records.Delete(ctx, name); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "deleted %s\n", name)
	return nil
}

// Export writes ciphertext only; the file is created with owner-only access.
func (a *App) Export(ctx context.Context, path string) error {
	f, err := filex.CreatePrivate(path)
	if err != nil {
		return err
	}

	n, err := a.records.Export(ctx, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "exported %d records to %s\n", n, path)
	return nil
}

func (a *App) Import(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := a.records.Import(ctx, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "imported %d records from %s\n", n, path)
	return nil
}
