package main

import (
	"time"

	"github.com/pkg/errors"

	"github.com/gautamcse27/tuition-app/core"
	"github.com/gautamcse27/tuition-app/core/user"
)

// addAdmin updates or creates an operator account.
func (cli *commandLine) addAdmin(uname, email, pwd string, isSuper bool) error {
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrRepo.GetUserByUsername(uname)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		if usr, err = cli.usrRepo.GetUserByEmail(user.RoleAdmin, email); err != nil && errors.Cause(err) != user.ErrNotFound {
			return err
		}
	}

	if usr.ID == 0 {
		now := time.Now().UTC()
		usr = user.User{
			Username:  uname,
			Email:     email,
			Role:      user.RoleAdmin,
			IsAdmin:   isSuper,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err = usr.SetPassword(pwd); err != nil {
			return err
		}
		_, err = cli.usrRepo.CreateUser(usr)
		return err
	}

	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	active := true
	_, err = cli.usrRepo.UpdateUser(usr, &active)
	return err
}
