package main

import (
	"database/sql"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/gautamcse27/tuition-app/core/user"
	inmemdb "github.com/gautamcse27/tuition-app/storage/database/inmem"
)

func setup(t *testing.T) *commandLine {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	return &commandLine{
		db:      new(sqlx.DB),
		usrRepo: inmemdb.NewUserRepository(db),
	}
}

func mockPassword(pwd string) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte(pwd), nil
	}
}

func TestCLI_run(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		pwd     string
		wantErr error
	}{
		{name: "no command", args: []string{"admin"}, wantErr: errHelp},
		{name: "unknown command", args: []string{"admin", "frobnicate"}, wantErr: errHelp},
		{
			name:    "addadmin without flags",
			args:    []string{"admin", "addadmin"},
			wantErr: errHelp,
		},
		{
			name:    "addadmin with empty password",
			args:    []string{"admin", "addadmin", "-username", "root", "-email", "root@test.cd"},
			pwd:     "",
			wantErr: errHelp,
		},
		{
			name: "addadmin",
			args: []string{"admin", "addadmin", "-username", "root", "-email", "root@test.cd", "-super"},
			pwd:  "Adm1nW0rd!",
		},
		{
			name:    "resetpassword without flags",
			args:    []string{"admin", "resetpassword"},
			wantErr: errHelp,
		},
		{
			name:    "resetpassword for unknown account",
			args:    []string{"admin", "resetpassword", "-username", "ghost"},
			pwd:     "Adm1nW0rd!",
			wantErr: user.ErrNotFound,
		},
		{
			name:    "migrate without subcommand",
			args:    []string{"admin", "migrate"},
			wantErr: errHelp,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli := setup(t)
			mockPassword(tt.pwd)

			err := cli.run(tt.args)
			if tt.wantErr != nil {
				if errors.Cause(err) != tt.wantErr {
					t.Errorf("run() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Errorf("run() failed: %v", err)
			}
		})
	}
}

func TestCLI_addAdmin(t *testing.T) {
	cli := setup(t)
	mockPassword("Adm1nW0rd!")

	args := []string{"admin", "addadmin", "-username", "Root", "-email", "ROOT@test.cd", "-super"}
	if err := cli.run(args); err != nil {
		t.Fatalf("run() failed: %v", err)
	}

	usr, err := cli.usrRepo.GetUserByUsername("root")
	if err != nil {
		t.Fatalf("GetUserByUsername() failed: %v", err)
	}
	if usr.Email != "root@test.cd" || usr.Role != user.RoleAdmin || !usr.IsAdmin || !usr.IsActive {
		t.Errorf("created admin = %+v", usr)
	}
	if err = usr.CheckPassword("Adm1nW0rd!"); err != nil {
		t.Errorf("CheckPassword() failed: %v", err)
	}

	// running again updates the same account
	mockPassword("N3wW0rd!!")
	if err = cli.run(args); err != nil {
		t.Fatalf("run() twice failed: %v", err)
	}
	updated, err := cli.usrRepo.GetUserByUsername("root")
	if err != nil {
		t.Fatalf("GetUserByUsername() failed: %v", err)
	}
	if updated.ID != usr.ID {
		t.Errorf("addadmin created a second account: id = %d, want %d", updated.ID, usr.ID)
	}
	if err = updated.CheckPassword("N3wW0rd!!"); err != nil {
		t.Errorf("CheckPassword() after update failed: %v", err)
	}
}

func TestCLI_resetPassword(t *testing.T) {
	cli := setup(t)

	mockPassword("0ldW0rd!")
	if err := cli.run([]string{"admin", "addadmin", "-username", "root", "-email", "root@test.cd"}); err != nil {
		t.Fatalf("run() failed: %v", err)
	}

	mockPassword("N3wW0rd!!")
	if err := cli.run([]string{"admin", "resetpassword", "-username", "root"}); err != nil {
		t.Fatalf("run() failed: %v", err)
	}

	usr, err := cli.usrRepo.GetUserByUsername("root")
	if err != nil {
		t.Fatalf("GetUserByUsername() failed: %v", err)
	}
	if err = usr.CheckPassword("N3wW0rd!!"); err != nil {
		t.Errorf("CheckPassword() failed: %v", err)
	}
}

func TestCLI_migrate(t *testing.T) {
	cli := setup(t)

	var gotCommand string
	var gotArgs []string
	migrateRunFunc = func(command string, db *sql.DB, args ...string) error {
		gotCommand = command
		gotArgs = args
		return nil
	}

	if err := cli.run([]string{"admin", "migrate", "up-to", "00001"}); err != nil {
		t.Fatalf("run() failed: %v", err)
	}
	if gotCommand != "up-to" {
		t.Errorf("migrate command = %q, want %q", gotCommand, "up-to")
	}
	if len(gotArgs) != 1 || gotArgs[0] != "00001" {
		t.Errorf("migrate args = %v", gotArgs)
	}
}
