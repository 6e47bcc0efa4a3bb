package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/apiclient"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/cards"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/nav"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/notify"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/reportcards"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/session"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp        = errors.New("help provided")
	errNotLoggedIn = errors.New("not logged in, run: appsistencia-admin login -document NUMBER")
	errAdminOnly   = errors.New("this command requires an admin session")
)

type authenticator interface {
	Login(ctx context.Context, documentNumber, password string) (apiclient.LoginResult, error)
}

type boletaService interface {
	Create(ctx context.Context, token string, req reportcards.Request) (reportcards.Summary, error)
	Delete(ctx context.Context, token string, req reportcards.Request) (reportcards.Summary, error)
}

type cardImporter interface {
	Import(ctx context.Context, token string, schoolID int64, rows []cards.Row) (cards.Summary, error)
}

type commandLine struct {
	ctx     context.Context
	out     io.Writer
	store   *session.Store
	auth    authenticator
	boletas boletaService
	cards   cardImporter
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  login -document NUMBER                                  - sign in, the password is prompted next")
	fmt.Fprintln(cli.out, "  logout                                                  - forget the stored session")
	fmt.Fprintln(cli.out, "  whoami                                                  - show the signed in operator")
	fmt.Fprintln(cli.out, "  menu                                                    - list the sections available to your role")
	fmt.Fprintln(cli.out, "  boletas create|delete -period ID -classrooms ID,ID,...  - bulk create or delete report cards")
	fmt.Fprintln(cli.out, "  cards import -file PATH.xlsx                            - assign RFID cards from a spreadsheet")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "login":
		return cli.login(args[2:])
	case "logout":
		if err := cli.store.LogoutAll(); err != nil {
			return err
		}
		fmt.Fprintln(cli.out, "Logged out.")
		return nil
	case "whoami":
		sess, err := cli.current()
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "%s (%s) %s, school %d\n", displayName(sess.User), sess.User.DocumentNumber, sess.User.Role, sess.User.SchoolID)
		if !sess.ExpiresAt.IsZero() {
			fmt.Fprintf(cli.out, "session expires at %s\n", sess.ExpiresAt.Local().Format("2006-01-02 15:04"))
		}
		return nil
	case "menu":
		sess, err := cli.current()
		if err != nil {
			return err
		}
		for _, item := range nav.ForRole(sess.User.Role) {
			fmt.Fprintf(cli.out, "%-24s %s\n", item.Path, item.Label)
		}
		return nil
	case "boletas":
		return cli.boletasCmd(args[2:])
	case "cards":
		return cli.cardsCmd(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) login(args []string) error {
	loginCmd := flag.NewFlagSet("login", flag.ContinueOnError)
	loginCmd.SetOutput(cli.out)
	document := loginCmd.String("document", "", "The operator's document number. The password will be prompted next.")
	if err := loginCmd.Parse(args); err != nil {
		return errHelp
	}
	if strings.TrimSpace(*document) == "" {
		loginCmd.Usage()
		return errHelp
	}

	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return err
	}
	if len(pwd) == 0 {
		loginCmd.Usage()
		return errHelp
	}

	res, err := cli.auth.Login(cli.ctx, strings.TrimSpace(*document), string(pwd))
	if err != nil {
		if apiclient.KindOf(err) == apiclient.KindUnauthorized {
			fmt.Fprintln(cli.out, "Invalid document number or password.")
			return err
		}
		return cli.fail(err)
	}
	sess, err := cli.store.Login(res.User, res.Token)
	if err != nil {
		return err
	}
	// The CLI holds a single operator at a time.
	if err := cli.store.LogoutOthers(sess.ID); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Logged in as %s (%s).\n", displayName(sess.User), sess.User.Role)
	return nil
}

func (cli *commandLine) boletasCmd(args []string) error {
	if len(args) == 0 || (args[0] != "create" && args[0] != "delete") {
		fmt.Fprintln(cli.out, "Usage: boletas create|delete -period ID -classrooms ID,ID,...")
		return errHelp
	}
	action := args[0]

	fs := flag.NewFlagSet("boletas "+action, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	period := fs.Int64("period", 0, "The period id.")
	classrooms := fs.String("classrooms", "", "Comma separated classroom ids, processed in the given order.")
	if err := fs.Parse(args[1:]); err != nil {
		return errHelp
	}
	ids, err := parseIDs(*classrooms)
	if err != nil {
		return err
	}
	if *period <= 0 || len(ids) == 0 {
		fs.Usage()
		return errHelp
	}

	sess, err := cli.admin()
	if err != nil {
		return err
	}
	req := reportcards.Request{ClassroomIDs: ids, PeriodID: *period, SchoolID: sess.User.SchoolID}

	var summary reportcards.Summary
	if action == "create" {
		summary, err = cli.boletas.Create(cli.ctx, sess.Token, req)
	} else {
		summary, err = cli.boletas.Delete(cli.ctx, sess.Token, req)
	}
	if err != nil {
		return cli.fail(err)
	}
	fmt.Fprintln(cli.out, summary.Message)
	return nil
}

func (cli *commandLine) cardsCmd(args []string) error {
	if len(args) == 0 || args[0] != "import" {
		fmt.Fprintln(cli.out, "Usage: cards import -file PATH.xlsx")
		return errHelp
	}
	fs := flag.NewFlagSet("cards import", flag.ContinueOnError)
	fs.SetOutput(cli.out)
	path := fs.String("file", "", "The .xlsx workbook to import.")
	if err := fs.Parse(args[1:]); err != nil {
		return errHelp
	}
	if *path == "" {
		fs.Usage()
		return errHelp
	}

	sess, err := cli.admin()
	if err != nil {
		return err
	}
	f, err := os.Open(*path)
	if err != nil {
		return err
	}
	defer f.Close()
	rows, err := cards.ParseWorkbook(f)
	if err != nil {
		return err
	}

	summary, err := cli.cards.Import(cli.ctx, sess.Token, sess.User.SchoolID, rows)
	if err != nil {
		return cli.fail(err)
	}
	fmt.Fprintln(cli.out, summary.Message)
	return nil
}

func (cli *commandLine) current() (session.Session, error) {
	sess, ok := cli.store.Current()
	if !ok {
		return session.Session{}, errNotLoggedIn
	}
	return sess, nil
}

func (cli *commandLine) admin() (session.Session, error) {
	sess, err := cli.current()
	if err != nil {
		return sess, err
	}
	if sess.User.Role != session.RoleAdmin {
		return sess, errAdminOnly
	}
	return sess, nil
}

// fail prints the operator notice for err. A rejected token also clears the
// stored session.
func (cli *commandLine) fail(err error) error {
	fmt.Fprintln(cli.out, notify.FromError(err).Message)
	if apiclient.KindOf(err) == apiclient.KindUnauthorized {
		_ = cli.store.LogoutAll()
	}
	return err
}

func parseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid classroom id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func displayName(u session.User) string {
	if strings.TrimSpace(u.Name) != "" {
		return u.Name
	}
	return u.DocumentNumber
}
