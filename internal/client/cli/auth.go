package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/homekeeper/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

func (a *App) readCredentials() (string, string, error) {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return "", "", err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return "", "", err
	}
	defer common.WipeByteArray(password)

	return email, string(password), nil
}

// Register creates an account. Local data recorded so far is kept and
// backed up to the new account.
func (a *App) Register(ctx context.Context, args []string) error {
	if a.isLoggedIn() {
		return fmt.Errorf("already signed in, logout first")
	}

	name, err := getSimpleText(a.reader, "Enter your name", a.out)
	if err != nil {
		return err
	}
	email, password, err := a.readCredentials()
	if err != nil {
		return err
	}

	res := a.core.Register(ctx, email, password, name)
	if !res.OK {
		a.println(res.Message)
		return nil
	}
	a.println("Account created.")
	return nil
}

// Login signs in. If both this device and the account hold data the user
// is asked which copy to keep.
func (a *App) Login(ctx context.Context, args []string) error {
	if a.isLoggedIn() {
		return fmt.Errorf("already signed in, logout first")
	}

	email, password, err := a.readCredentials()
	if err != nil {
		return err
	}

	if res := a.core.Login(ctx, email, password); !res.OK {
		a.println(res.Message)
	}
	return nil
}

func (a *App) Logout(ctx context.Context, args []string) error {
	if !a.isLoggedIn() {
		a.println("Not signed in.")
		return nil
	}
	if res := a.core.Logout(ctx); !res.OK {
		a.println(res.Message)
	}
	return nil
}

func (a *App) WhoAmI(ctx context.Context, args []string) error {
	id := a.core.CurrentIdentity()
	if id == nil {
		a.println("Anonymous, data is stored on this device only.")
		return nil
	}
	a.printf("%s <%s> id=%s\n", id.DisplayName, id.Email, id.ID)
	return nil
}
