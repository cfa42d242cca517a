package users

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/hardlog/internal/cli"
	"github.com/julianstephens/hardlog/internal/constants"
	"github.com/julianstephens/hardlog/internal/keyring"
	"github.com/julianstephens/hardlog/internal/logger"
	"github.com/julianstephens/hardlog/internal/storage"
	"github.com/julianstephens/hardlog/internal/utils"
)

type UserCmd struct {
	Create UserCreateCmd `cmd:"" help:"Create a participant profile."`
	Use    UserUseCmd    `cmd:"" help:"Remember which participant to track as."`
	Show   UserShowCmd   `cmd:"" help:"Show the current participant." default:"1"`
	Rename UserRenameCmd `cmd:"" help:"Change the current participant's display name."`
}

type UserCreateCmd struct {
	Email string `arg:"" optional:"" help:"Email address. Prompted for when omitted."`
	Name  string `help:"Display name. Defaults to the email address."`
	Use   bool   `help:"Track as the new participant from now on."`
}

func (c *UserCreateCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	if strings.TrimSpace(c.Email) == "" {
		if err := c.prompt(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				fmt.Println("Cancelled.")
				return nil
			}
			return err
		}
	}
	name := strings.TrimSpace(c.Name)
	if name == "" {
		name = strings.TrimSpace(c.Email)
	}

	u, err := ctx.Store.CreateUser(ctx.Background(), c.Email, name)
	if err != nil {
		if storage.IsConflict(err) {
			return fmt.Errorf("a participant with email %s already exists", c.Email)
		}
		return err
	}
	fmt.Printf("✓ Created %s (%s)\n", u.DisplayName(), u.ID)

	if c.Use {
		return remember(u.ID, u.DisplayName())
	}
	return nil
}

func (c *UserCreateCmd) prompt() error {
	return huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Email").
			Value(&c.Email).
			Validate(validateEmail),
		huh.NewInput().
			Title("Display name").
			Description("Leave blank to use the email address.").
			Value(&c.Name),
	)).Run()
}

func validateEmail(s string) error {
	s = strings.TrimSpace(s)
	at := strings.Index(s, "@")
	if at < 1 || at == len(s)-1 {
		return errors.New("enter an email address")
	}
	return nil
}

type UserUseCmd struct {
	User string `arg:"" help:"Email address or user id."`
}

func (c *UserUseCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}
	u, err := cli.LookupUser(ctx.Background(), ctx.Store, c.User)
	if err != nil {
		if storage.IsNotFound(err) {
			return fmt.Errorf("no participant %q. Use '%s user create' first", c.User, constants.AppName)
		}
		return err
	}
	return remember(u.ID, u.DisplayName())
}

func remember(userID, display string) error {
	if err := keyring.SetSessionUser(userID); err != nil {
		logger.Warn("Could not store selected user", "error", err)
		return fmt.Errorf("failed to remember participant: %w (pass --user or set %s instead)", err, constants.EnvUser)
	}
	fmt.Printf("✓ Now tracking as %s\n", display)
	return nil
}

type UserShowCmd struct{}

func (c *UserShowCmd) Run(ctx *cli.Context) error {
	ctrl, err := ctx.Ready(ctx.Background())
	if err != nil {
		return err
	}
	u, err := ctrl.CurrentUser(ctx.Background())
	if err != nil {
		return err
	}
	streak, err := ctrl.Streak(ctx.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Name:     %s\n", u.DisplayName())
	fmt.Printf("Email:    %s\n", u.Email)
	fmt.Printf("ID:       %s\n", u.ID)
	fmt.Printf("Joined:   %s\n", u.CreatedAt.In(ctx.Location).Format(constants.DateFormat))
	fmt.Printf("Progress: %s\n", utils.ChallengeDay(streak))
	return nil
}

type UserRenameCmd struct {
	Name string `arg:"" help:"New display name."`
}

func (c *UserRenameCmd) Run(ctx *cli.Context) error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return errors.New("display name cannot be empty")
	}
	ctrl, err := ctx.Ready(ctx.Background())
	if err != nil {
		return err
	}
	u, err := ctrl.Rename(ctx.Background(), name)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Renamed to %s\n", u.DisplayName())
	return nil
}
