package main

import (
	"time"

	"github.com/pkg/errors"

	"github.com/gautamcse27/tuition-app/core"
	"github.com/gautamcse27/tuition-app/core/user"
)

func (cli *commandLine) resetPassword(uname, pwd string) error {
	uname = core.CleanString(uname, true /* lower */)

	usr, err := cli.usrRepo.GetUserByUsername(uname)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		if usr, err = cli.usrRepo.GetUserByEmail(user.RoleAdmin, uname); err != nil {
			return err
		}
	}

	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err = cli.usrRepo.UpdateUser(usr, nil)
	return err
}
